package catalog

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/domain"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/slug"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/validator"
)

var (
	seedTypes = []struct {
		name        string
		description string
	}{
		{"Fone Bluetooth", "Som sem fio com cancelamento de ruído e bateria para o dia todo."},
		{"Relógio Inteligente", "Monitora passos, sono e batimentos com tela sempre ligada."},
		{"Mochila Urbana", "Compartimento acolchoado para notebook e tecido impermeável."},
		{"Camiseta Básica", "Algodão penteado com caimento confortável."},
		{"Tênis Esportivo", "Solado com amortecimento para corridas e caminhadas."},
		{"Caneca Térmica", "Mantém a bebida quente por até seis horas."},
		{"Óculos de Sol", "Lentes polarizadas com proteção UV400."},
		{"Luminária de Mesa", "Luz LED regulável com três temperaturas de cor."},
	}
	seedVariants = []string{"Preto", "Branco", "Azul", "Verde", "Grafite", "Areia"}
)

// Generate builds n deterministic sample products with ids 1..n. The same
// seed always yields the same catalog.
func Generate(n int, seed uint64) []domain.Product {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	products := make([]domain.Product, 0, n)

	for i := 1; i <= n; i++ {
		t := seedTypes[rng.IntN(len(seedTypes))]
		name := fmt.Sprintf("%s %s", t.name, seedVariants[rng.IntN(len(seedVariants))])
		// Prices end in ,90 between R$ 19,90 and R$ 499,90.
		price := domain.Cents((19+rng.IntN(481))*100 + 90)

		products = append(products, domain.Product{
			ID:          int64(i),
			Name:        name,
			Description: t.description,
			Price:       price,
			Image:       fmt.Sprintf("https://picsum.photos/seed/%s-%d/400/400", slug.Generate(name), i),
		})
	}
	return products
}

// WriteFile validates products and writes them as a catalog document.
func WriteFile(path string, products []domain.Product) error {
	for i, p := range products {
		if err := validator.Validate(p); err != nil {
			return fmt.Errorf("product %d: %w", i, err)
		}
	}

	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}
