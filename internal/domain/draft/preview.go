package draft

// PreviewStore hands out short-lived references to pending images so they can be rendered
// before they are encoded. Every reference must be released once its file is dropped.
type PreviewStore interface {
	Put(data []byte, contentType string) string
	Release(ref string)
}
