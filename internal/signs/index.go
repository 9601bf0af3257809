// Package signs serves the WLASL sign dictionary from an in-memory index.
package signs

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"sort"
	"strings"
)

const DefaultSuggestionLimit = 10

type Video struct {
	URL        string `json:"url"`
	Source     string `json:"source"`
	SignerID   int    `json:"signerId"`
	BBox       []int  `json:"bbox"`
	FPS        int    `json:"fps"`
	FrameStart int    `json:"frameStart"`
	FrameEnd   int    `json:"frameEnd"`
	InstanceID int    `json:"instanceId"`
	VideoID    string `json:"videoId"`
	Split      string `json:"split"`
}

type Sign struct {
	Word   string  `json:"word"`
	Found  bool    `json:"found"`
	Videos []Video `json:"videos"`
}

type Stats struct {
	TotalWords           int      `json:"totalWords"`
	TotalVideos          int      `json:"totalVideos"`
	Sources              []string `json:"sources"`
	AverageVideosPerWord string   `json:"averageVideosPerWord"`
}

// rawEntry mirrors one element of the WLASL_v0.3 JSON file.
type rawEntry struct {
	Gloss     string `json:"gloss"`
	Instances []struct {
		URL        string `json:"url"`
		Source     string `json:"source"`
		SignerID   int    `json:"signer_id"`
		BBox       []int  `json:"bbox"`
		FPS        int    `json:"fps"`
		FrameStart int    `json:"frame_start"`
		FrameEnd   int    `json:"frame_end"`
		InstanceID int    `json:"instance_id"`
		VideoID    string `json:"video_id"`
		Split      string `json:"split"`
	} `json:"instances"`
}

// Index is immutable after construction and safe for concurrent use.
type Index struct {
	byWord map[string]*Sign
	// words keeps dataset order, used for prefix suggestions.
	words  []string
	sorted []string
	stats  Stats
}

func LoadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sign dataset: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (*Index, error) {
	var entries []rawEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse sign dataset: %w", err)
	}
	return build(entries), nil
}

// Empty returns an index with no words.
func Empty() *Index {
	return build(nil)
}

func build(entries []rawEntry) *Index {
	idx := &Index{byWord: make(map[string]*Sign, len(entries))}
	sources := make(map[string]struct{})
	var sourceList []string

	for _, e := range entries {
		word := normalize(e.Gloss)
		if word == "" {
			continue
		}
		sign := &Sign{Word: e.Gloss, Found: true, Videos: make([]Video, 0, len(e.Instances))}
		for _, in := range e.Instances {
			sign.Videos = append(sign.Videos, Video{
				URL:        in.URL,
				Source:     in.Source,
				SignerID:   in.SignerID,
				BBox:       in.BBox,
				FPS:        in.FPS,
				FrameStart: in.FrameStart,
				FrameEnd:   in.FrameEnd,
				InstanceID: in.InstanceID,
				VideoID:    in.VideoID,
				Split:      in.Split,
			})
			if _, seen := sources[in.Source]; !seen {
				sources[in.Source] = struct{}{}
				sourceList = append(sourceList, in.Source)
			}
		}
		if _, dup := idx.byWord[word]; !dup {
			idx.words = append(idx.words, word)
		}
		idx.byWord[word] = sign
	}

	total := 0
	for _, s := range idx.byWord {
		total += len(s.Videos)
	}

	idx.sorted = append([]string(nil), idx.words...)
	sort.Strings(idx.sorted)

	avg := 0.0
	if len(idx.words) > 0 {
		avg = float64(total) / float64(len(idx.words))
	}
	if sourceList == nil {
		sourceList = []string{}
	}
	idx.stats = Stats{
		TotalWords:           len(idx.words),
		TotalVideos:          total,
		Sources:              sourceList,
		AverageVideosPerWord: fmt.Sprintf("%.2f", avg),
	}
	return idx
}

// Search looks up an exact gloss, ignoring case and surrounding space.
func (idx *Index) Search(query string) (*Sign, bool) {
	sign, ok := idx.byWord[normalize(query)]
	return sign, ok
}

func (idx *Index) Has(word string) bool {
	_, ok := idx.byWord[normalize(word)]
	return ok
}

// Suggestions returns up to limit words starting with prefix, in dataset order.
func (idx *Index) Suggestions(prefix string, limit int) []string {
	prefix = normalize(prefix)
	out := []string{}
	if prefix == "" {
		return out
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	for _, w := range idx.words {
		if strings.HasPrefix(w, prefix) {
			out = append(out, w)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// Batch maps every requested word to its sign, or nil when absent.
func (idx *Index) Batch(words []string) map[string]*Sign {
	out := make(map[string]*Sign, len(words))
	for _, w := range words {
		sign, _ := idx.Search(w)
		out[w] = sign
	}
	return out
}

// Words returns all glosses sorted. The caller must not modify the slice.
func (idx *Index) Words() []string {
	return idx.sorted
}

// Random returns up to n distinct words in random order.
func (idx *Index) Random(n int) []string {
	if n <= 0 {
		return []string{}
	}
	shuffled := append([]string(nil), idx.words...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

func (idx *Index) Stats() Stats {
	return idx.stats
}

func (idx *Index) Len() int {
	return len(idx.words)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
