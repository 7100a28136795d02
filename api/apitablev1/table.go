package apitablev1

type TableResponse struct {
	Name    string `json:"name"`
	Total   int    `json:"total"`
	Indexes int    `json:"indexes"`
}
