package common

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cvtailor/internal/errors"
	"cvtailor/internal/jobtext"
	"cvtailor/internal/types"
	"cvtailor/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger      *errors.Logger
	maxFileSize int64
}

// NewFileProcessor creates a file processor that rejects inputs larger than
// maxFileSize bytes (no limit when non-positive).
func NewFileProcessor(logger *errors.Logger, maxFileSize int64) *FileProcessor {
	return &FileProcessor{logger: logger, maxFileSize: maxFileSize}
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil && fp.logger != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return string(content), nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateAndReadFiles validates and reads multiple input files
func (fp *FileProcessor) ValidateAndReadFiles(filenames ...string) ([]string, error) {
	contents := make([]string, len(filenames))

	for i, filename := range filenames {
		if err := utils.ValidateInputFile(filename, fp.maxFileSize); err != nil {
			return nil, errors.NewValidationError("INVALID_INPUT_FILE",
				fmt.Sprintf("Invalid file %s", filename), err)
		}

		if !utils.IsTextFile(filename) && fp.logger != nil {
			fp.logger.Warn("File may not be a text file", "filename", filename)
		}

		content, err := fp.ReadFile(filename)
		if err != nil {
			return nil, err
		}

		contents[i] = content
	}

	return contents, nil
}

// ReadProfile reads a profile JSON file and validates it
func (fp *FileProcessor) ReadProfile(filename string) (*types.CandidateProfile, error) {
	contents, err := fp.ValidateAndReadFiles(filename)
	if err != nil {
		return nil, err
	}
	return DecodeProfile([]byte(contents[0]))
}

// ReadJobDescription reads a job posting and reduces HTML postings to plain text
func (fp *FileProcessor) ReadJobDescription(filename string) (string, error) {
	contents, err := fp.ValidateAndReadFiles(filename)
	if err != nil {
		return "", err
	}

	text, err := jobtext.Normalize(contents[0])
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Cannot extract text from job description: %s", filename), err)
	}
	if utils.IsHTMLFile(filename) && fp.logger != nil {
		fp.logger.Debug("Extracted job description text from HTML",
			"filename", filename, "raw_chars", len(contents[0]), "text_chars", len(text))
	}
	return text, nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}

// DecodeProfile parses profile JSON and runs struct validation on the result
func DecodeProfile(data []byte) (*types.CandidateProfile, error) {
	var profile types.CandidateProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidProfile,
			"Profile is not valid JSON", err)
	}
	if err := ValidateProfile(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
