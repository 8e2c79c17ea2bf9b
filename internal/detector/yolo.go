package detector

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"github.com/perchlab/birdwatch/internal/errors"
)

const (
	// yoloInputSize is the square input resolution the network expects.
	yoloInputSize = 640

	// yoloObjectnessThreshold drops rows with negligible objectness before
	// class scoring. This is a model plumbing floor, not the configured
	// confidence policy; that filtering happens in FilterOptions.
	yoloObjectnessThreshold = 0.25
)

// YOLO is a gocv DNN detection backend for YOLOv5-family ONNX models.
type YOLO struct {
	// net is not thread-safe; all inference is serialized.
	mu     sync.Mutex
	net    gocv.Net
	labels []string
}

// NewYOLO loads the model and its class labels. labelsPath may be empty to
// use the built-in COCO class list.
func NewYOLO(modelPath, labelsPath string) (*YOLO, error) {
	labels, err := LoadLabels(labelsPath)
	if err != nil {
		return nil, errors.NewDetectionError("cannot load class labels", err)
	}

	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, errors.NewDetectionError(fmt.Sprintf("cannot read model %s", modelPath), nil)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		_ = net.Close()
		return nil, errors.NewDetectionError("cannot set DNN backend", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		_ = net.Close()
		return nil, errors.NewDetectionError("cannot set DNN target", err)
	}

	return &YOLO{net: net, labels: labels}, nil
}

// Close releases the underlying network.
func (y *YOLO) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.net.Close()
}

// Detect runs inference over the image at imagePath and returns every
// detection the model produced above the objectness floor. Confidence and
// area policy filtering belongs to the caller.
func (y *YOLO) Detect(ctx context.Context, imagePath string) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := gocv.IMRead(imagePath, gocv.IMReadColor)
	if img.Empty() {
		return nil, errors.NewDetectionError(fmt.Sprintf("cannot decode image %s", imagePath), nil)
	}
	defer func() { _ = img.Close() }()

	y.mu.Lock()
	defer y.mu.Unlock()

	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(yoloInputSize, yoloInputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer func() { _ = blob.Close() }()

	y.net.SetInput(blob, "")

	output := y.net.Forward("")
	defer func() { _ = output.Close() }()

	dims := output.Size()
	if len(dims) != 3 {
		return nil, errors.NewDetectionError(fmt.Sprintf("unexpected DNN output dims %v", dims), nil)
	}

	reshaped := output.Reshape(1, dims[1])
	if reshaped.Empty() || reshaped.Rows() == 0 || reshaped.Cols() < 5 {
		_ = reshaped.Close()
		return nil, errors.NewDetectionError("cannot reshape DNN output", nil)
	}
	defer func() { _ = reshaped.Close() }()

	imgW := img.Cols()
	imgH := img.Rows()

	var detections []Detection
	for i := 0; i < reshaped.Rows(); i++ {
		row := reshaped.RowRange(i, i+1)
		data, err := row.DataPtrFloat32()
		_ = row.Close()
		if err != nil || len(data) < 5 {
			continue
		}

		if det, ok := y.parseRow(data, imgW, imgH); ok {
			detections = append(detections, det)
		}
	}

	return detections, nil
}

// parseRow converts one YOLO output row into a Detection in image
// coordinates. Rows are [cx, cy, w, h, objectness, class scores...] with
// coordinates normalized to the input.
func (y *YOLO) parseRow(data []float32, imgW, imgH int) (Detection, bool) {
	objectness := data[4]
	if objectness < yoloObjectnessThreshold {
		return Detection{}, false
	}

	classScores := data[5:]
	if len(classScores) != len(y.labels) {
		return Detection{}, false
	}

	classID := -1
	classConfidence := float32(0.0)
	for j, score := range classScores {
		if score > classConfidence {
			classConfidence = score
			classID = j
		}
	}
	if classID == -1 {
		return Detection{}, false
	}

	cx := data[0] * float32(imgW)
	cy := data[1] * float32(imgH)
	w := data[2] * float32(imgW)
	h := data[3] * float32(imgH)

	box := image.Rect(
		int(cx-w/2),
		int(cy-h/2),
		int(cx+w/2),
		int(cy+h/2),
	).Intersect(image.Rect(0, 0, imgW, imgH))

	if box.Empty() {
		return Detection{}, false
	}

	areaPercent := float64(box.Dx()*box.Dy()) / float64(imgW*imgH) * 100

	return Detection{
		Label:       strings.ToLower(y.labels[classID]),
		Confidence:  float64(objectness * classConfidence),
		Box:         box,
		AreaPercent: areaPercent,
	}, true
}
