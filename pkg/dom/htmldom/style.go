package htmldom

import "strings"

type declaration struct {
	name  string
	value string
}

// Style returns the value of one style property, or "" when unset.
func (n *Node) Style(name string) string {
	for _, d := range n.declarations() {
		if d.name == name {
			return d.value
		}
	}
	return ""
}

// SetStyle assigns one style property. An empty value removes it, and the
// style attribute is dropped once no declarations remain.
func (n *Node) SetStyle(name, value string) {
	decls := n.declarations()
	found := false
	for i := 0; i < len(decls); i++ {
		if decls[i].name != name {
			continue
		}
		found = true
		if value == "" {
			decls = append(decls[:i], decls[i+1:]...)
			i--
			continue
		}
		decls[i].value = value
	}
	if !found && value != "" {
		decls = append(decls, declaration{name: name, value: value})
	}

	if len(decls) == 0 {
		n.RemoveAttribute("style")
		return
	}
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.name + ": " + d.value + ";"
	}
	_ = n.SetAttribute("style", strings.Join(parts, " "))
}

// declarations parses the style attribute.
func (n *Node) declarations() []declaration {
	raw, ok := n.Attribute("style")
	if !ok {
		return nil
	}
	var decls []declaration
	for _, part := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" {
			continue
		}
		decls = append(decls, declaration{name: name, value: value})
	}
	return decls
}
