package attachments

import "fmt"

// New builds the storage named by backend: inline, memory or s3.
func New(backend string, s3cfg S3Config) (Storage, error) {
	switch backend {
	case "", "inline":
		return NewInline(), nil
	case "memory":
		return NewMemory(), nil
	case "s3":
		return NewS3(s3cfg)
	default:
		return nil, fmt.Errorf("unknown attachment backend %q", backend)
	}
}
