package extractor

import "context"

// DetectedFace is one aligned face crop produced by the detection model,
// with its detection confidence. Crop bytes are an encoded JPEG.
type DetectedFace struct {
	Crop       []byte
	Confidence float64
}

// Extractor is the opaque face detection + embedding capability. The model
// itself (detection, alignment, the embedding network) lives behind this
// boundary so the matching core stays independent of any specific binding.
type Extractor interface {
	// DetectFaces returns zero or more aligned face crops found in image.
	DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error)
	// Embed converts one aligned crop into a fixed-length vector. The vector
	// is raw model output; callers normalize it themselves.
	Embed(ctx context.Context, crop []byte) ([]float32, error)
}
