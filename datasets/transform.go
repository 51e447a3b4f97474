package datasets

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math/rand"
	"os"

	"golang.org/x/image/draw"
)

// Channel statistics of the UTKFace images, in RGB order.
var (
	UTKFaceMean = [3]float32{0.5960, 0.4573, 0.3921}
	UTKFaceStd  = [3]float32{0.2586, 0.2314, 0.2275}
)

// ImageTransform maps an image to a new image. Random transforms draw from
// rng; deterministic ones ignore it.
type ImageTransform func(img image.Image, rng *rand.Rand) image.Image

// Resize scales an image to w x h with bilinear interpolation.
func Resize(w, h int) ImageTransform {
	return func(img image.Image, _ *rand.Rand) image.Image {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		return dst
	}
}

// RandomCrop cuts a size x size window at a random offset. Images smaller
// than the window are scaled up first.
func RandomCrop(size int) ImageTransform {
	return func(img image.Image, rng *rand.Rand) image.Image {
		b := img.Bounds()
		if b.Dx() < size || b.Dy() < size {
			img = Resize(max(b.Dx(), size), max(b.Dy(), size))(img, rng)
			b = img.Bounds()
		}
		x0 := b.Min.X + rng.Intn(b.Dx()-size+1)
		y0 := b.Min.Y + rng.Intn(b.Dy()-size+1)

		dst := image.NewRGBA(image.Rect(0, 0, size, size))
		draw.Draw(dst, dst.Bounds(), img, image.Pt(x0, y0), draw.Src)
		return dst
	}
}

// RandomHorizontalFlip mirrors an image with probability p.
func RandomHorizontalFlip(p float64) ImageTransform {
	return func(img image.Image, rng *rand.Rand) image.Image {
		if rng.Float64() >= p {
			return img
		}
		src := toRGBA(img)
		b := src.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				dst.SetRGBA(b.Dx()-1-x, y, src.RGBAAt(b.Min.X+x, b.Min.Y+y))
			}
		}
		return dst
	}
}

// Compose chains transforms left to right.
func Compose(steps ...ImageTransform) ImageTransform {
	return func(img image.Image, rng *rand.Rand) image.Image {
		for _, s := range steps {
			img = s(img, rng)
		}
		return img
	}
}

// Pipeline is a transform followed by conversion to a normalized CHW buffer.
type Pipeline struct {
	Transform ImageTransform
	Mean      [3]float32
	Std       [3]float32
}

// TrainPipeline is the augmentation used for training splits.
func TrainPipeline() Pipeline {
	return Pipeline{
		Transform: Compose(Resize(256, 256), RandomCrop(224), RandomHorizontalFlip(0.5)),
		Mean:      UTKFaceMean,
		Std:       UTKFaceStd,
	}
}

// TestPipeline is the deterministic transform used for evaluation splits.
func TestPipeline() Pipeline {
	return Pipeline{
		Transform: Resize(224, 224),
		Mean:      UTKFaceMean,
		Std:       UTKFaceStd,
	}
}

// Apply runs the pipeline and returns the pixels with their [3, H, W] shape.
func (p Pipeline) Apply(img image.Image, rng *rand.Rand) ([]float32, []int) {
	if p.Transform != nil {
		img = p.Transform(img, rng)
	}
	return ToTensor(img, p.Mean, p.Std)
}

// ToTensor converts an image to channel-major float32 values in [0,1],
// normalized per channel with (v-mean)/std.
func ToTensor(img image.Image, mean, std [3]float32) ([]float32, []int) {
	src := toRGBA(img)
	b := src.Bounds()
	h, w := b.Dy(), b.Dx()
	plane := h * w
	out := make([]float32, 3*plane)

	for y := range h {
		for x := range w {
			c := src.RGBAAt(b.Min.X+x, b.Min.Y+y)
			i := y*w + x
			out[i] = (float32(c.R)/255 - mean[0]) / std[0]
			out[plane+i] = (float32(c.G)/255 - mean[1]) / std[1]
			out[2*plane+i] = (float32(c.B)/255 - mean[2]) / std[2]
		}
	}
	return out, []int{3, h, w}
}

// LoadRGB decodes the image at path into an opaque RGB image.
func LoadRGB(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return toRGBA(img), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
