package consistency

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/gmaffy/genbank-qc/stats"
)

// ReadTreeLeaves returns the canonical leaf names of the Newick tree at path.
func ReadTreeLeaves(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, stats.ErrNotBuilt)
		}
		return nil, err
	}
	defer f.Close()
	leaves, err := ParseLeaves(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return leaves, nil
}

// ParseLeaves scans a Newick tree and returns the names of its leaves, i.e.
// labels that directly follow "(" or ",". Internal node labels, which follow
// ")", and branch lengths are ignored.
func ParseLeaves(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	var (
		leaves []string
		label  strings.Builder
		depth  int
		// leaf is true while reading a label in leaf position.
		leaf     = true
		inLength bool
		ended    bool
	)
	flush := func() {
		if leaf && label.Len() > 0 {
			leaves = append(leaves, stats.CanonicalID(label.String()))
		}
		label.Reset()
	}

	for {
		ch, _, err := br.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if ended {
			if strings.TrimSpace(string(ch)) != "" {
				return nil, errors.New("newick: data after ';'")
			}
			continue
		}
		switch ch {
		case '\'':
			quoted, err := readQuoted(br)
			if err != nil {
				return nil, err
			}
			if !inLength {
				label.WriteString(quoted)
			}
		case '[':
			if err := skipComment(br); err != nil {
				return nil, err
			}
		case '(':
			depth++
			label.Reset()
			leaf, inLength = true, false
		case ',':
			flush()
			leaf, inLength = true, false
		case ')':
			flush()
			depth--
			if depth < 0 {
				return nil, errors.New("newick: unbalanced ')'")
			}
			leaf, inLength = false, false
		case ':':
			flush()
			inLength = true
		case ';':
			flush()
			ended = true
		case ' ', '\t', '\n', '\r':
		default:
			if !inLength {
				label.WriteRune(ch)
			}
		}
	}
	if depth != 0 {
		return nil, errors.New("newick: unbalanced '('")
	}
	if !ended {
		flush()
	}
	return leaves, nil
}

func readQuoted(br *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		ch, _, err := br.ReadRune()
		if err != nil {
			return "", errors.New("newick: unterminated quoted label")
		}
		if ch == '\'' {
			next, _, err := br.ReadRune()
			if err == nil && next == '\'' {
				sb.WriteRune('\'')
				continue
			}
			if err == nil {
				if uerr := br.UnreadRune(); uerr != nil {
					return "", uerr
				}
			}
			return sb.String(), nil
		}
		sb.WriteRune(ch)
	}
}

func skipComment(br *bufio.Reader) error {
	for {
		ch, _, err := br.ReadRune()
		if err != nil {
			return errors.New("newick: unterminated comment")
		}
		if ch == ']' {
			return nil
		}
	}
}
