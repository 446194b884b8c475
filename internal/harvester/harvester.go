// Gói harvester điều phối toàn bộ vòng thu thập file từ GitHub:
// duyệt không gian tham số truy vấn, kéo từng trang kết quả và fan-out
// các item của mỗi trang qua dedup store.

package harvester

// Harvester là interface chung cho các phiên bản harvester.
// Harvest chạy đến khi duyệt hết không gian tham số hoặc gặp lỗi fatal,
// trả về false khi phải dừng giữa chừng vì lỗi.
type Harvester interface {
	Harvest() bool
}

// Stopper cho phép yêu cầu dừng mềm: harvester đang chạy sẽ kết thúc
// truy vấn hiện tại rồi dừng ở ranh giới parameterization kế tiếp.
type Stopper interface {
	Stop()
}
