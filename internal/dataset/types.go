package dataset

// Dataset is a loaded collection of labeled customer reviews plus its
// configuration. Items are read-only for the harness once loaded.
type Dataset struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
	ReviewsFile string `yaml:"reviews_file"`

	Reviews []Review `yaml:"-"` // loaded separately from CSV
}

// Review is a single labeled item: a piece of review text and the star
// rating the customer actually gave.
type Review struct {
	ID    string
	Text  string
	Stars int // ground truth, 1-5
}
