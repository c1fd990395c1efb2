package indicator

import (
	"testing"

	"github.com/rxtech-lab/argo-signals/mocks"
)

func BenchmarkComputeIndicators480(b *testing.B) {
	gen := mocks.NewDataGenerator(42)
	config := mocks.DefaultConfig()
	config.Count = 480
	prices := gen.GenerateCloses(config)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := ComputeIndicators(prices); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRSISeries10K(b *testing.B) {
	gen := mocks.NewDataGenerator(42)
	config := mocks.DefaultConfig()
	prices := gen.GenerateCloses(config)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		RSISeries(prices, 14)
	}
}
