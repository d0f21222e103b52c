package imagetypes

// result of asking whether an image URL may be fetched
type Decision struct {
	Url     string `json:"url"`
	Allowed bool   `json:"allowed"`
}
