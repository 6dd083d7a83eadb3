package ui

// Reporter receives progress events from a scraping run
type Reporter interface {
	Discovered(tombs int)
	StartTomb(id, title string)
	TombFailed(id string, err error)
	TombDone(id string, images, warnings int)
	// ImageDone is called once per classified image with its outcome
	ImageDone(section, path, outcome string, size int64, err error)
	Complete()
}
