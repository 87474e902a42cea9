package processing

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
)

const INPUT_SUFFIX = ".json"

// ErrSourceDirMissing means the input directory does not exist.
var ErrSourceDirMissing = errors.New("source directory not found")

// ListInputFiles returns the names of the input files in dir in natural
// order. Hidden files and names without the .json suffix are skipped. When
// max > 0 the ordered list is cut to its first max names.
func ListInputFiles(dir string, max int) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceDirMissing, dir)
		}
		return nil, fmt.Errorf("[Discovery] stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceDirMissing, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("[Discovery] read %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, INPUT_SUFFIX) {
			continue
		}
		names = append(names, name)
	}

	SortNatural(names)
	if max > 0 && len(names) > max {
		names = names[:max]
	}
	return names, nil
}

// SortNatural sorts names in place with NaturalLess.
func SortNatural(names []string) {
	sort.SliceStable(names, func(i, j int) bool { return NaturalLess(names[i], names[j]) })
}

// NaturalLess orders strings so that embedded numbers compare by value:
// "post9.json" sorts before "post10.json". Each string is split into
// alternating text and digit runs; text runs compare case-insensitively,
// digit runs as integers of any length. Equal keys fall back to byte order.
func NaturalLess(a, b string) bool {
	ka, kb := naturalKey(a), naturalKey(b)
	for i := 0; i < len(ka) && i < len(kb); i++ {
		var c int
		if i%2 == 0 {
			c = strings.Compare(strings.ToLower(ka[i]), strings.ToLower(kb[i]))
		} else {
			c = compareDigits(ka[i], kb[i])
		}
		if c != 0 {
			return c < 0
		}
	}
	if len(ka) != len(kb) {
		return len(ka) < len(kb)
	}
	return a < b
}

// naturalKey splits s into runs starting with a (possibly empty) text run,
// so even indexes hold text and odd indexes hold digits.
func naturalKey(s string) []string {
	key := make([]string, 0, 4)
	start := 0
	inDigits := false
	for i := 0; i < len(s); i++ {
		d := isDigit(s[i])
		if d != inDigits {
			key = append(key, s[start:i])
			start = i
			inDigits = d
		}
	}
	key = append(key, s[start:])
	if inDigits {
		key = append(key, "")
	}
	return key
}

func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
