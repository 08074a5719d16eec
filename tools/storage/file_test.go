package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRecipeState(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{
			name:     "basic recipe load",
			filename: "recipes.json",
			data:     []byte(`[{"name": "Chicken Rice Bowl", "ingredients": [{"name": "chicken", "weight_grams": 200}]}]`),
		},
		{
			name:     "empty recipe file",
			filename: "empty.json",
			data:     []byte(`[]`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := filepath.Join(tmpDir, tt.filename)
			require.NoError(t, os.WriteFile(filePath, tt.data, 0644))

			state := NewFileRecipeState(filePath)
			loaded, err := state.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.data, loaded)
		})
	}

	t.Run("load nonexistent recipes", func(t *testing.T) {
		state := NewFileRecipeState(filepath.Join(tmpDir, "nonexistent.json"))
		_, err := state.Load(context.Background())
		assert.Error(t, err)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestFileMacroState(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("basic macro load", func(t *testing.T) {
		data := []byte(`{"chicken": {"protein": 27, "carbs": 0, "fat": 3.6, "calories": 165}}`)
		filePath := filepath.Join(tmpDir, "macros.json")
		require.NoError(t, os.WriteFile(filePath, data, 0644))

		state := NewFileMacroState(filePath)
		loaded, err := state.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, data, loaded)
	})

	t.Run("load nonexistent macros", func(t *testing.T) {
		state := NewFileMacroState(filepath.Join(tmpDir, "nonexistent.json"))
		_, err := state.Load(context.Background())
		assert.Error(t, err)
		assert.True(t, os.IsNotExist(err))
	})
}
