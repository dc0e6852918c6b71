// Package imagex 处理课程/路径封面图：解码、按最长边缩放、统一编码为 WebP。
package imagex

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const ContentType = "image/webp"

var ErrEmptyImage = errors.New("empty image")

type Options struct {
	MaxSize int     // 最长边像素，<=0 不缩放
	Quality float32 // 1-100，0 使用默认值 80
}

// Decode 解码 jpeg/png/gif/webp，并按 EXIF 方向摆正
func Decode(r io.Reader) (image.Image, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrEmptyImage
	}
	if img, err := webp.Decode(bytes.NewReader(all)); err == nil {
		return img, nil
	}
	img, err := imaging.Decode(bytes.NewReader(all), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Fit 最长边超过 maxSize 时等比缩小，不会放大
func Fit(img image.Image, maxSize int) image.Image {
	if maxSize <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxSize && b.Dy() <= maxSize {
		return img
	}
	return imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
}

// ToWebP 读取任意支持的图片，缩放后编码为 WebP
func ToWebP(r io.Reader, opt Options) ([]byte, error) {
	img, err := Decode(r)
	if err != nil {
		return nil, err
	}
	img = Fit(img, opt.MaxSize)

	q := opt.Quality
	if q <= 0 || q > 100 {
		q = 80
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
