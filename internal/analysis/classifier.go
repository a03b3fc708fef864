package analysis

import (
	"strings"

	"surveylens/domain/dataset"
	"surveylens/internal/errors"
)

// Role is a heuristic label for what a column holds
type Role int

const (
	RoleUnclassified Role = iota
	RoleNumeric
	RoleBinaryIndicator
	RoleFreeText
	RoleCategorical
)

func (r Role) String() string {
	switch r {
	case RoleNumeric:
		return "numeric"
	case RoleBinaryIndicator:
		return "binary_indicator"
	case RoleFreeText:
		return "free_text"
	case RoleCategorical:
		return "categorical"
	}
	return "unclassified"
}

// RoleSet is the set of roles a column satisfies. The empty set means Unclassified.
type RoleSet uint8

// Has reports whether the set contains role
func (s RoleSet) Has(role Role) bool {
	if role == RoleUnclassified {
		return s == 0
	}
	return s&(1<<uint(role)) != 0
}

func (s RoleSet) with(role Role) RoleSet {
	return s | 1<<uint(role)
}

// Roles lists the members in declaration order
func (s RoleSet) Roles() []Role {
	if s == 0 {
		return []Role{RoleUnclassified}
	}
	var out []Role
	for _, r := range []Role{RoleNumeric, RoleBinaryIndicator, RoleFreeText, RoleCategorical} {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s RoleSet) String() string {
	names := make([]string, 0, 4)
	for _, r := range s.Roles() {
		names = append(names, r.String())
	}
	return strings.Join(names, "+")
}

// Rich-text thresholds: a text column is free text when more than
// richTextMinValues of its values have more than richTextMinTokens words.
const (
	richTextMinValues = 5
	richTextMinTokens = 3
)

// ClassifyColumn computes the roles of one column from its current contents
func ClassifyColumn(c *dataset.Column) RoleSet {
	var roles RoleSet
	switch c.Type {
	case dataset.TypeNumeric:
		roles = roles.with(RoleNumeric)
		if IsBinaryIndicator(c) {
			roles = roles.with(RoleBinaryIndicator)
		}
	case dataset.TypeText, dataset.TypeCategorical:
		if c.Count() > 0 {
			roles = roles.with(RoleCategorical)
		}
		if IsRichText(c) {
			roles = roles.with(RoleFreeText)
		}
	}
	return roles
}

// Classify computes the roles of the named column
func Classify(ds *dataset.Dataset, name string) (RoleSet, error) {
	c, ok := ds.Column(name)
	if !ok {
		return 0, errors.ColumnNotFound("Selected column not found in data.")
	}
	return ClassifyColumn(c), nil
}

// ColumnsWithRole returns, in column order, every column satisfying role
func ColumnsWithRole(ds *dataset.Dataset, role Role) []string {
	var out []string
	for _, c := range ds.Columns() {
		if ClassifyColumn(c).Has(role) {
			out = append(out, c.Name)
		}
	}
	return out
}

// IsBinaryIndicator reports whether every present value of a numeric column is 0 or 1.
// A column with no present values is not an indicator.
func IsBinaryIndicator(c *dataset.Column) bool {
	if !c.IsNumeric() {
		return false
	}
	present := 0
	for i := 0; i < c.Len(); i++ {
		v, ok := c.Float(i)
		if !ok {
			continue
		}
		if v != 0 && v != 1 {
			return false
		}
		present++
	}
	return present > 0
}

// IsRichText reports whether a text column holds substantive free-form answers
func IsRichText(c *dataset.Column) bool {
	if c.Type != dataset.TypeText {
		return false
	}
	long := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		if len(strings.Fields(c.Value(i))) > richTextMinTokens {
			long++
			if long > richTextMinValues {
				return true
			}
		}
	}
	return false
}
