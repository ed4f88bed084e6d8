package taxon

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/coolbeans/brenda/pkg/dump"
)

const (
	namesMember          = "names.dmp"
	scientificNameClass  = "scientific name"
	initialNamesCapacity = 1 << 16
)

// NamesIndex resolves names from an NCBI taxdump names.dmp table. Lookups
// are exact and case sensitive. When a name text is shared by several
// taxa, a scientific name beats any other name class, otherwise the first
// row wins. A loaded index is read-only and safe for concurrent use.
type NamesIndex struct {
	ids        map[string]int
	scientific map[string]bool
}

// LoadNames reads names.dmp from a plain file, a .gz file, or a taxdump
// archive (.tar.gz, .zip).
func LoadNames(path string) (*NamesIndex, error) {
	rc, err := dump.OpenMember(path, namesMember)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	index, err := ReadNames(rc)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return index, nil
}

// ReadNames parses names.dmp rows of the form
// "tax_id\t|\tname_txt\t|\tunique name\t|\tname class\t|".
func ReadNames(r io.Reader) (*NamesIndex, error) {
	index := &NamesIndex{
		ids:        make(map[string]int, initialNamesCapacity),
		scientific: make(map[string]bool, initialNamesCapacity),
	}

	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		row := strings.TrimSuffix(strings.TrimRight(scanner.Text(), "\r"), "\t|")
		if row == "" {
			continue
		}

		cols := strings.Split(row, "\t|\t")
		if len(cols) < 4 {
			return nil, fmt.Errorf("line %d: expected 4 columns, got %d", lineNumber, len(cols))
		}
		id, err := strconv.Atoi(strings.TrimSpace(cols[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad tax_id %q: %w", lineNumber, cols[0], err)
		}
		index.add(cols[1], id, cols[3] == scientificNameClass)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading names: %w", err)
	}
	return index, nil
}

func (n *NamesIndex) add(name string, id int, scientific bool) {
	if _, exists := n.ids[name]; exists {
		if !scientific || n.scientific[name] {
			return
		}
	}
	n.ids[name] = id
	if scientific {
		n.scientific[name] = true
	}
}

// Resolve looks up a scientific name in the index.
func (n *NamesIndex) Resolve(name string) (int, bool) {
	id, ok := n.ids[name]
	return id, ok
}

// Len returns the number of distinct names indexed.
func (n *NamesIndex) Len() int { return len(n.ids) }
