package storage

import (
	"context"
	"os"
)

type FileRecipeState struct {
	FilePath string
}

func NewFileRecipeState(filePath string) *FileRecipeState {
	return &FileRecipeState{FilePath: filePath}
}

func (r *FileRecipeState) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(r.FilePath)
}

type FileMacroState struct {
	FilePath string
}

func NewFileMacroState(filePath string) *FileMacroState {
	return &FileMacroState{FilePath: filePath}
}

func (m *FileMacroState) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(m.FilePath)
}
