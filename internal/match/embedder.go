package match

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"net/http"
	"strings"
	"unicode"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

var (
	ErrEmptyTexts      = errors.New("no texts provided for embedding")
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Embedder turns texts into vectors, one per input, in input order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// OpenAIEmbedderConfig configures an OpenAI-compatible embeddings endpoint
type OpenAIEmbedderConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// OpenAIEmbedder implements Embedder over the embeddings API
type OpenAIEmbedder struct {
	client openai.Client
	model  string
}

// NewOpenAIEmbedder creates an embedder for any OpenAI-compatible base URL
func NewOpenAIEmbedder(cfg OpenAIEmbedderConfig) (*OpenAIEmbedder, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}

	opts := []option.RequestOption{option.WithMaxRetries(1)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &OpenAIEmbedder{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

// Embed requests embeddings for all texts in one call
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyTexts
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingFailed, len(resp.Data), len(texts))
	}

	vectors := make([][]float64, len(texts))
	for _, data := range resp.Data {
		idx := int(data.Index)
		if idx < 0 || idx >= len(texts) {
			return nil, fmt.Errorf("%w: vector index %d out of range", ErrEmbeddingFailed, idx)
		}
		vectors[idx] = data.Embedding
	}
	return vectors, nil
}

// DefaultHashDimension is the vector size of the hashing embedder
const DefaultHashDimension = 512

// HashingEmbedder is a deterministic bag-of-words embedder. Each lowercase
// word and word bigram is hashed into a fixed number of buckets.
type HashingEmbedder struct {
	Dimension int
}

// Embed never fails except on empty input
func (h HashingEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyTexts
	}
	dim := h.Dimension
	if dim <= 0 {
		dim = DefaultHashDimension
	}

	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, dim)
		words := tokenize(text)
		for j, w := range words {
			vec[bucket(w, dim)]++
			if j > 0 {
				vec[bucket(words[j-1]+" "+w, dim)] += 0.5
			}
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}

func bucket(s string, dim int) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32() % uint32(dim))
}

// Cosine returns the cosine similarity of a and b, or 0 when either is zero
// or their lengths differ
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
