package export

const (
	FormatCSV = "csv"
	FormatEDL = "edl"
)

type ExportRequest struct {
	Name      string  `json:"name"`
	Format    string  `json:"format"`
	FrameRate float64 `json:"frame_rate"`
	OutputDir string  `json:"output_dir"`
}

type ExportResponse struct {
	Status     string `json:"status"`
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
	MarkCount  int    `json:"mark_count"`
}
