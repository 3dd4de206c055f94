package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
	"lmagents/internal/port"
)

// Messages returned to the model. The agent prompt relies on them.
const (
	MsgNoMoreImages = "There are no more images to process"
	MsgNextImage    = "retrieve the next image to sort"
	MsgFileNotFound = "File not found"
	MsgOperationErr = "operation error"
	MsgRetryOther   = "retry with another image"
)

var DefaultImagePatterns = []string{"*.png", "*.jpg", "*.jpeg", "*.bmp", "*.gif"}

type SorterOptions struct {
	SourceDir      string
	OutputDir      string // category folders are created here
	Categories     []string
	Patterns       []string
	DescribePrompt string
}

// ImageSorter exposes file-system actions over a source folder and a set
// of category folders as tools.
type ImageSorter struct {
	opts      SorterOptions
	describer port.VisionDescriber
	log       *logrus.Entry
}

func NewImageSorter(opts SorterOptions, describer port.VisionDescriber, log *logrus.Entry) (*ImageSorter, error) {
	if opts.SourceDir == "" {
		return nil, fmt.Errorf("source folder is required")
	}
	if len(opts.Categories) == 0 {
		return nil, fmt.Errorf("at least one category is required")
	}
	if len(opts.Patterns) == 0 {
		opts.Patterns = DefaultImagePatterns
	}
	for _, p := range opts.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid image pattern: %s", p)
		}
	}
	if opts.DescribePrompt == "" {
		opts.DescribePrompt = "describe the image in 3 sentences"
	}
	if log == nil {
		log = logrus.WithField("component", "sorter")
	}
	return &ImageSorter{
		opts:      opts,
		describer: describer,
		log:       log,
	}, nil
}

// EnsureFolders creates the source folder and every category folder.
func (s *ImageSorter) EnsureFolders() error {
	dirs := []string{s.opts.SourceDir}
	for _, c := range s.opts.Categories {
		dirs = append(dirs, s.categoryDir(c))
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("failed to create folder %s: %w", d, err)
		}
	}
	return nil
}

func (s *ImageSorter) categoryDir(category string) string {
	return filepath.Join(s.opts.OutputDir, category)
}

// PendingImages lists image files in the source folder, sorted by name.
func (s *ImageSorter) PendingImages() ([]string, error) {
	entries, err := os.ReadDir(s.opts.SourceDir)
	if err != nil {
		return nil, err
	}

	var images []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if s.isImage(e.Name()) {
			images = append(images, e.Name())
		}
	}
	sort.Strings(images)
	return images, nil
}

func (s *ImageSorter) isImage(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range s.opts.Patterns {
		if ok, err := doublestar.Match(pattern, lower); err == nil && ok {
			return true
		}
	}
	return false
}

// NextImage returns the first pending image name or MsgNoMoreImages.
func (s *ImageSorter) NextImage() (string, error) {
	images, err := s.PendingImages()
	if err != nil {
		return "", err
	}
	if len(images) == 0 {
		s.log.WithField("folder", s.opts.SourceDir).Info("no images left")
		return MsgNoMoreImages, nil
	}
	s.log.WithField("image", images[0]).Info("next image")
	return images[0], nil
}

// Move moves an image from the source folder into a category folder.
func (s *ImageSorter) Move(image, category string) (string, error) {
	if err := validateName(image); err != nil {
		return MsgFileNotFound, nil
	}
	src := filepath.Join(s.opts.SourceDir, image)
	dst := filepath.Join(s.categoryDir(category), image)

	if err := os.Rename(src, dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.WithField("image", image).Warn("image not found in source folder")
			return MsgFileNotFound, nil
		}
		s.log.WithError(err).WithField("image", image).Error("failed to move image")
		return MsgOperationErr, nil
	}

	s.log.WithFields(logrus.Fields{"image": image, "category": category}).Info("image moved")
	return MsgNextImage, nil
}

// Describe asks the vision model to describe an image in the source folder.
func (s *ImageSorter) Describe(ctx context.Context, image string) (string, error) {
	if err := validateName(image); err != nil {
		return MsgFileNotFound, nil
	}
	path := filepath.Join(s.opts.SourceDir, image)
	if _, err := os.Stat(path); err != nil {
		return MsgFileNotFound, nil
	}
	if s.describer == nil {
		return MsgRetryOther, nil
	}

	desc, err := s.describer.DescribeImage(ctx, path, s.opts.DescribePrompt)
	if err != nil {
		s.log.WithError(err).WithField("image", image).Error("failed to describe image")
		return MsgRetryOther, nil
	}
	return desc, nil
}

// Tools returns list, move-per-category and describe tools.
func (s *ImageSorter) Tools() []Tool {
	imageParam := []stringParam{{"image_name", "name of the image file as returned by list_images_to_process"}}

	tools := []Tool{{
		Spec: spec("list_images_to_process", "Lists the name of the next image to process", nil),
		Run: func(context.Context, Args) (string, error) {
			return s.NextImage()
		},
	}}

	for _, category := range s.opts.Categories {
		tools = append(tools, Tool{
			Spec: spec("move_image_to_"+category,
				fmt.Sprintf("Sorts and moves an image to the '%s' folder.", category),
				imageParam),
			Run: func(_ context.Context, args Args) (string, error) {
				name, err := args.Text("image_name")
				if err != nil {
					return "", err
				}
				return s.Move(name, category)
			},
		})
	}

	tools = append(tools, Tool{
		Spec: spec("get_image_description", "Provides a description of the specified image", imageParam),
		Run: func(ctx context.Context, args Args) (string, error) {
			name, err := args.Text("image_name")
			if err != nil {
				return "", err
			}
			return s.Describe(ctx, name)
		},
	})

	return tools
}

func validateName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("invalid image name: %q", name)
	}
	return nil
}
