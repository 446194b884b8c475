// Gói params liệt kê không gian tham số truy vấn cho GitHub code search.
// Search API chỉ cho xem tối đa 1000 kết quả đầu của mỗi truy vấn, nên muốn
// phủ rộng hơn phải đổi tham số: mỗi bộ (sort, order, term) là một cửa sổ
// 1000 kết quả khác nhau trên cùng một tập file.

package params

import "fmt"

// Sort mode của code search. Mặc định là best match và không nhận order,
// indexed sắp theo thời điểm GitHub index file.
const (
	SortDefault = ""
	SortIndexed = "indexed"
)

const (
	OrderNone = ""
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Query là một bộ tham số truy vấn bất biến. Term có thể rỗng
// khi không có vocabulary cho filename mục tiêu.
type Query struct {
	Sort     string
	Order    string
	Term     string
	Filename string
}

func (q Query) String() string {
	sort := q.Sort
	if sort == "" {
		sort = "best-match"
	}
	order := q.Order
	if order == "" {
		order = "none"
	}
	return fmt.Sprintf("sort=%s order=%s term=%q filename=%s", sort, order, q.Term, q.Filename)
}

// npmManifestFields là các field hợp lệ của package.json theo tài liệu npm.
// Mỗi field xuất hiện trong một tập file khác nhau nên dùng làm search term
// sẽ mở ra các cửa sổ kết quả gần như trực giao.
var npmManifestFields = []string{
	"name",
	"version",
	"description",
	"keywords",
	"homepage",
	"bugs",
	"license",
	"author",
	"contributors",
	"funding",
	"files",
	"main",
	"browser",
	"bin",
	"man",
	"directories",
	"repository",
	"scripts",
	"config",
	"dependencies",
	"devDependencies",
	"peerDependencies",
	"bundledDependencies",
	"optionalDependencies",
	"engines",
	"os",
	"cpu",
	"private",
	"publishConfig",
}

// vocabularies ánh xạ các filename đã biết schema sang danh sách search term
var vocabularies = map[string][]string{
	"package.json": npmManifestFields,
}

// Space sinh tuần tự các Query cho một filename mục tiêu. Thứ tự sinh là
// thuần khiết: cùng filename luôn cho đúng một dãy query như nhau.
// Dãy gồm ba khối: sort mặc định (không order), indexed asc, indexed desc,
// mỗi khối duyệt hết vocabulary theo thứ tự khai báo.
type Space struct {
	filename string
	terms    []string
	idx      int
}

func NewSpace(filename string) *Space {
	return &Space{
		filename: filename,
		terms:    vocabularies[filename],
	}
}

// Len trả về tổng số query của không gian này
func (s *Space) Len() int {
	if len(s.terms) == 0 {
		return 3
	}
	return 3 * len(s.terms)
}

// Next trả về query kế tiếp, ok=false khi đã duyệt hết
func (s *Space) Next() (Query, bool) {
	if s.idx >= s.Len() {
		return Query{}, false
	}
	q := s.at(s.idx)
	s.idx++
	return q, true
}

// Reset đưa con trỏ duyệt về đầu dãy
func (s *Space) Reset() {
	s.idx = 0
}

// at tính query tại vị trí i, không cần materialize cả dãy
func (s *Space) at(i int) Query {
	n := len(s.terms)
	if n == 0 {
		// Không biết schema của filename: chỉ còn 3 biến thể sort/order
		switch i {
		case 0:
			return Query{Sort: SortDefault, Order: OrderNone, Filename: s.filename}
		case 1:
			return Query{Sort: SortIndexed, Order: OrderAsc, Filename: s.filename}
		default:
			return Query{Sort: SortIndexed, Order: OrderDesc, Filename: s.filename}
		}
	}

	term := s.terms[i%n]
	switch i / n {
	case 0:
		// Sort mặc định không có khái niệm order
		return Query{Sort: SortDefault, Order: OrderNone, Term: term, Filename: s.filename}
	case 1:
		return Query{Sort: SortIndexed, Order: OrderAsc, Term: term, Filename: s.filename}
	default:
		return Query{Sort: SortIndexed, Order: OrderDesc, Term: term, Filename: s.filename}
	}
}
