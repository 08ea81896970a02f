package vecport_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/vecport"
	"github.com/hupe1980/vecport/blobstore"
	"github.com/hupe1980/vecport/publish"
)

// Example_convert demonstrates converting a mapping payload.
func Example_convert() {
	ctx := context.Background()

	payload := []byte(`{"alpha": [1, 2, 3], "beta": [4, 5, 6]}`)

	c, err := vecport.New()
	if err != nil {
		log.Fatal(err)
	}

	doc, err := c.ConvertBytes(ctx, payload)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("count=%d dimension=%d\n", doc.Count, doc.Dimension)
	// Output: count=2 dimension=3
}

// Example_export demonstrates the full pipeline with ordering and rounding.
func Example_export() {
	ctx := context.Background()

	payload := []byte(`[{"id": "b", "vector": [0.123456789]}, {"id": "a", "vector": [1]}]`)

	c, err := vecport.New(
		vecport.WithSortByID(true),
		vecport.WithPrecision(4),
	)
	if err != nil {
		log.Fatal(err)
	}

	out, err := c.ExportBytes(ctx, payload)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(string(out))
	// Output: {"version":1,"dimension":1,"count":2,"embeddings":[{"id":"a","vector":[1]},{"id":"b","vector":[0.1235]}]}
}

// Example_normalize demonstrates L2 normalization.
func Example_normalize() {
	ctx := context.Background()

	c, _ := vecport.New(vecport.WithNormalize(true))

	doc, err := c.ConvertBytes(ctx, []byte(`{"unit": [3, 4]}`))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(doc.Embeddings[0].Vector)
	// Output: [0.6 0.8]
}

// Example_yaml demonstrates YAML input with format auto-detection.
func Example_yaml() {
	ctx := context.Background()

	payload := []byte("gamma:\n  - 1.5\n  - 2.5\n")

	c, _ := vecport.New()

	doc, err := c.ConvertBytes(ctx, payload)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("id=%s vector=%v\n", doc.Embeddings[0].ID, doc.Embeddings[0].Vector)
	// Output: id=gamma vector=[1.5 2.5]
}

// Example_publish demonstrates publishing a document with a manifest.
func Example_publish() {
	ctx := context.Background()

	c, _ := vecport.New()
	out, err := c.ExportBytes(ctx, []byte(`{"alpha": [1, 2]}`))
	if err != nil {
		log.Fatal(err)
	}

	pub := publish.NewPublisher(blobstore.NewMemoryStore())
	m, err := pub.Publish(ctx, out, publish.Meta{
		Dimension: 2,
		Count:     1,
		RunID:     "20240701-full",
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s seq=%d\n", m.Document, m.Sequence)
	// Output: EXPORT-000001-20240701.json seq=1
}
