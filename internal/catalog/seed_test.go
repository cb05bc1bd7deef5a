package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/domain"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/validator"
)

func TestGenerate(t *testing.T) {
	products := Generate(25, 42)

	require.Len(t, products, 25)
	for i, p := range products {
		assert.Equal(t, int64(i+1), p.ID)
		assert.NoError(t, validator.Validate(p))
		assert.Equal(t, int64(90), int64(p.Price)%100)
		assert.GreaterOrEqual(t, p.Price, domain.Cents(1990))
		assert.LessOrEqual(t, p.Price, domain.Cents(49990))
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	assert.Equal(t, Generate(10, 7), Generate(10, 7))
	assert.NotEqual(t, Generate(10, 7), Generate(10, 8))
}

func TestWriteFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ResourcePath)
	products := Generate(5, 1)

	require.NoError(t, WriteFile(path, products))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []domain.Product
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, products, decoded)
}

func TestWriteFile_RejectsInvalidProduct(t *testing.T) {
	path := filepath.Join(t.TempDir(), ResourcePath)

	err := WriteFile(path, []domain.Product{{ID: 0, Name: "x", Image: "x.jpg"}})

	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
