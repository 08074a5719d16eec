package storage

import (
	"context"
	"errors"
)

type RecipeState interface {
	Load(ctx context.Context) ([]byte, error)
}

type MacroState interface {
	Load(ctx context.Context) ([]byte, error)
}

// TestRecipeState is a simple in-memory implementation for testing
type TestRecipeState struct {
	data []byte
	err  error
}

func NewTestRecipeState(data []byte) *TestRecipeState {
	return &TestRecipeState{data: data}
}

func NewTestRecipeStateWithError() *TestRecipeState {
	return &TestRecipeState{err: errors.New("not found")}
}

func (t *TestRecipeState) Load(ctx context.Context) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}

// TestMacroState is a simple in-memory implementation for testing
type TestMacroState struct {
	data []byte
	err  error
}

func NewTestMacroState(data []byte) *TestMacroState {
	return &TestMacroState{data: data}
}

func NewTestMacroStateWithError() *TestMacroState {
	return &TestMacroState{err: errors.New("not found")}
}

func (t *TestMacroState) Load(ctx context.Context) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}
