// Gói dto cung cấp các đối tượng truyền dữ liệu cho dự án
// Chuyển đổi phản hồi code search của github thành một cấu trúc

package githubapi

type RepositoryRef struct {
	Id       int64  `json:"id"`
	FullName string `json:"full_name"`
}

type CodeSearchItem struct {
	Name       string        `json:"name"`
	Path       string        `json:"path"`
	Sha        string        `json:"sha"`
	HtmlUrl    string        `json:"html_url"`
	Repository RepositoryRef `json:"repository"`
	// Có thể thêm nhiều trường tại đây
}

type CodeSearchResponse struct {
	TotalCount        int              `json:"total_count"`
	IncompleteResults bool             `json:"incomplete_results"`
	Items             []CodeSearchItem `json:"items"`
}
