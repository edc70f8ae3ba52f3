// SPDX-License-Identifier: MPL-2.0

package pyproject

import (
	"sort"
	"strconv"

	"github.com/pelletier/go-toml/v2/unstable"
)

// projectURLOrder recovers the order project.urls labels appear in the file.
// Go maps do not keep insertion order, but the serialized metadata record
// must, so the raw document is re-scanned with the go-toml AST parser. Labels
// present in the decoded map but missed by the scan (exotic layouts) are
// appended in sorted order to keep the result deterministic and complete.
func projectURLOrder(data []byte, urls map[string]string) []string {
	if len(urls) == 0 {
		return nil
	}

	order := scanURLKeys(data)

	seen := make(map[string]bool, len(order))
	result := make([]string, 0, len(urls))
	for _, label := range order {
		if _, ok := urls[label]; ok && !seen[label] {
			result = append(result, label)
			seen[label] = true
		}
	}

	var missing []string
	for label := range urls {
		if !seen[label] {
			missing = append(missing, label)
		}
	}
	sort.Strings(missing)
	return append(result, missing...)
}

// scanURLKeys walks the TOML expression stream and collects keys assigned
// under project.urls, in both the [project.urls] table form and the inline
// urls = {...} form.
func scanURLKeys(data []byte) []string {
	var (
		order []string
		table []string
	)

	p := &unstable.Parser{}
	p.Reset(data)
	for p.NextExpression() {
		e := p.Expression()
		switch e.Kind {
		case unstable.Table:
			table = keyParts(e)
		case unstable.ArrayTable:
			// An [[array-of-tables]] header cannot contain project.urls.
			table = nil
		case unstable.KeyValue:
			full := append(append([]string{}, table...), keyParts(e)...)
			switch {
			case len(full) == 3 && full[0] == "project" && full[1] == "urls":
				order = append(order, full[2])
			case len(full) == 2 && full[0] == "project" && full[1] == "urls":
				order = append(order, inlineTableKeys(e.Value())...)
			}
		}
	}
	if p.Error() != nil {
		// The typed decode already accepted the document; treat a scan
		// failure as "no order recovered".
		return nil
	}
	return order
}

func inlineTableKeys(n *unstable.Node) []string {
	if n == nil || n.Kind != unstable.InlineTable {
		return nil
	}
	var keys []string
	it := n.Children()
	for it.Next() {
		child := it.Node()
		if child.Kind != unstable.KeyValue {
			continue
		}
		parts := keyParts(child)
		if len(parts) == 1 {
			keys = append(keys, parts[0])
		}
	}
	return keys
}

func keyParts(n *unstable.Node) []string {
	var parts []string
	it := n.Key()
	for it.Next() {
		parts = append(parts, keyString(it.Node()))
	}
	return parts
}

// keyString decodes a raw key token. The AST keeps the original bytes, so
// quoted labels like "Bug Tracker" arrive with their delimiters attached.
func keyString(n *unstable.Node) string {
	s := string(n.Data)
	if len(s) >= 2 {
		switch {
		case s[0] == '\'' && s[len(s)-1] == '\'':
			return s[1 : len(s)-1]
		case s[0] == '"' && s[len(s)-1] == '"':
			if u, err := strconv.Unquote(s); err == nil {
				return u
			}
			return s[1 : len(s)-1]
		}
	}
	return s
}
