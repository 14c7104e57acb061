package crawler

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"sjsage522/recruitcrawler/helpers"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// strippedText joins every text node under sel after trimming each one, the
// way detail pages are flattened into a single cell.
func strippedText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}

// visibleText approximates rendered text: whitespace runs collapse to one space
func visibleText(sel *goquery.Selection) string {
	return helpers.CleanText(sel.Text())
}

func ptr(s string) *string { return &s }

// Cell is one matched label with its container and paired value element.
// Value is empty when the page has the label but no value.
type Cell struct {
	Container *goquery.Selection
	Label     *goquery.Selection
	Value     *goquery.Selection
}

// Transform turns a cell into one nullable value
type Transform func(c Cell) *string

// Pair is a sub-labeled value produced by an Expander
type Pair struct {
	Label string
	Value *string
}

// Expander turns a compound cell into several sub-labeled values
type Expander func(c Cell) []Pair

// MatchMode selects how a rule's label is compared with the page label
type MatchMode int

const (
	MatchExact MatchMode = iota
	MatchContains
)

// LabelRule maps a page label to a target field
type LabelRule struct {
	Label     string
	Match     MatchMode
	Field     string    // defaults to Label
	Value     string    // overrides the table's value selector, relative to the container
	Transform Transform // defaults to the table's text transform
	Expand    Expander  // when set, writes sub-labeled values instead of Field
}

func (r LabelRule) field() string {
	if r.Field != "" {
		return r.Field
	}
	return r.Label
}

func (r LabelRule) matches(label string) bool {
	if r.Match == MatchContains {
		return strings.Contains(label, r.Label)
	}
	return label == r.Label
}

// LabelTable extracts a label → value mapping from repeated containers, such
// as the dl/dt/dd lists on detail pages.
type LabelTable struct {
	Root      string // section selector; empty searches the whole document
	Container string // repeated labeled container within Root
	Label     string // label element within the container
	Value     string // value element within the container, or following sibling of the label when Sibling is set
	Sibling   bool   // every label in the container pairs with its next Value sibling
	CatchAll  bool   // store labels without a rule under their own text
	SkipEmpty bool   // leave fields untouched when the value is empty
	Text      Transform
	Rules     []LabelRule
}

// Fields returns the target fields of the table's plain rules, in order
func (t LabelTable) Fields() []string {
	var out []string
	for _, r := range t.Rules {
		if r.Expand == nil {
			out = append(out, r.field())
		}
	}
	return out
}

func (t LabelTable) rule(label string) (LabelRule, bool) {
	for _, r := range t.Rules {
		if r.matches(label) {
			return r, true
		}
	}
	return LabelRule{}, false
}

// Extract runs the table over doc and stores results in rec. A label whose
// value element is missing sets its field to nil and nothing else.
func (t LabelTable) Extract(doc *goquery.Selection, rec *Record) {
	root := doc
	if t.Root != "" {
		root = doc.Find(t.Root).First()
		if root.Length() == 0 {
			return
		}
	}

	root.Find(t.Container).Each(func(_ int, container *goquery.Selection) {
		if t.Sibling {
			container.Find(t.Label).Each(func(_ int, label *goquery.Selection) {
				t.apply(Cell{
					Container: container,
					Label:     label,
					Value:     label.NextAllFiltered(t.Value).First(),
				}, rec)
			})
			return
		}

		label := container.Find(t.Label).First()
		if label.Length() == 0 {
			return
		}
		t.apply(Cell{Container: container, Label: label, Value: container.Find(t.Value).First()}, rec)
	})
}

func (t LabelTable) apply(c Cell, rec *Record) {
	label := strings.TrimSpace(visibleText(c.Label))
	r, ok := t.rule(label)
	if !ok {
		if !t.CatchAll || label == "" {
			return
		}
		r = LabelRule{Label: label}
	}
	if r.Value != "" {
		c.Value = c.Container.Find(r.Value).First()
	}

	if r.Expand != nil {
		for _, p := range r.Expand(c) {
			if t.SkipEmpty && (p.Value == nil || *p.Value == "") {
				continue
			}
			rec.SetText(p.Label, p.Value)
		}
		return
	}

	transform := r.Transform
	if transform == nil {
		transform = t.Text
	}
	if transform == nil {
		transform = TextTransform
	}

	var value *string
	if c.Value.Length() > 0 || r.Transform != nil {
		value = transform(c)
	}
	if t.SkipEmpty && (value == nil || *value == "") {
		return
	}
	rec.SetText(r.field(), value)
}

// TextTransform is the value element's stripped text
func TextTransform(c Cell) *string {
	if c.Value.Length() == 0 {
		return nil
	}
	return ptr(strippedText(c.Value))
}

// VisibleTextTransform is the value element's whitespace-collapsed text
func VisibleTextTransform(c Cell) *string {
	if c.Value.Length() == 0 {
		return nil
	}
	return ptr(visibleText(c.Value))
}

// PreTextTransform prefers a <pre> block inside the value
func PreTextTransform(c Cell) *string {
	if c.Value.Length() == 0 {
		return nil
	}
	if pre := c.Value.Find("pre").First(); pre.Length() > 0 {
		return ptr(strippedText(pre))
	}
	return ptr(strippedText(c.Value))
}

// BeforeSlashTransform keeps the text before the first "/", turning
// "3명 / 현재 지원자수 : 12명" into "3명"
func BeforeSlashTransform(c Cell) *string {
	if c.Value.Length() == 0 {
		return nil
	}
	text := visibleText(c.Value)
	if i := strings.Index(text, "/"); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	return &text
}

// JoinLinksTransform joins the texts of child links with ", ", falling back
// to the whole value text when there are none
func JoinLinksTransform(c Cell) *string {
	if c.Value.Length() == 0 {
		return nil
	}
	links := c.Value.Find("a")
	if links.Length() == 0 {
		return ptr(visibleText(c.Value))
	}
	texts := links.Map(func(_ int, a *goquery.Selection) string {
		return strings.TrimSpace(a.Text())
	})
	return ptr(strings.Join(texts, ", "))
}

// FontColorTransform joins the texts of <font color=...> children in the
// given color order, skipping colors that are absent
func FontColorTransform(colors ...string) Transform {
	return func(c Cell) *string {
		if c.Value.Length() == 0 {
			return nil
		}
		var parts []string
		for _, color := range colors {
			font := c.Value.Find("font[color='" + color + "']").First()
			parts = append(parts, strings.TrimSpace(font.Text()))
		}
		return ptr(strings.TrimSpace(strings.Join(parts, " ")))
	}
}

// JoinTextsTransform joins the non-empty texts of every element matching sel
// in the container, excluding the label itself
func JoinTextsTransform(sel, sep string) Transform {
	return func(c Cell) *string {
		var parts []string
		c.Container.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if c.Label.Length() > 0 && s.IsSelection(c.Label) {
				return
			}
			if text := strippedText(s); text != "" {
				parts = append(parts, text)
			}
		})
		if len(parts) == 0 {
			return nil
		}
		return ptr(strings.Join(parts, sep))
	}
}

// NextSiblingTransform is the stripped text of the first following sibling
// of the label matching sel
func NextSiblingTransform(sel string) Transform {
	return func(c Cell) *string {
		next := c.Label.NextAllFiltered(sel).First()
		if next.Length() == 0 {
			return nil
		}
		return ptr(strippedText(next))
	}
}

// RegexTransform applies re to the value text and keeps the first group
func RegexTransform(re *regexp.Regexp) Transform {
	return func(c Cell) *string {
		if c.Value.Length() == 0 {
			return nil
		}
		m := re.FindStringSubmatch(visibleText(c.Value))
		if len(m) < 2 {
			return nil
		}
		return ptr(strings.TrimSpace(m[1]))
	}
}

// TableExpander zips a nested table's th headers with its td cells
func TableExpander(c Cell) []Pair {
	table := c.Value.Find("table").First()
	if table.Length() == 0 {
		return nil
	}
	headers := table.Find("th").Map(func(_ int, s *goquery.Selection) string { return visibleText(s) })
	values := table.Find("td").Map(func(_ int, s *goquery.Selection) string { return visibleText(s) })
	var out []Pair
	for i := 0; i < len(headers) && i < len(values); i++ {
		out = append(out, Pair{Label: headers[i], Value: ptr(values[i])})
	}
	return out
}

// NestedListExpander reads a nested dl inside the value, each dt paired with
// its next dd
func NestedListExpander(c Cell) []Pair {
	sub := c.Value.Find("dl").First()
	if sub.Length() == 0 {
		return nil
	}
	var out []Pair
	sub.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		dd := dt.NextAllFiltered("dd").First()
		if dd.Length() == 0 {
			return
		}
		out = append(out, Pair{Label: visibleText(dt), Value: ptr(visibleText(dd))})
	})
	return out
}

// GroupedListTransform encodes sub-groups as a JSON object: each item matching
// group contributes label text → its list entries joined by ", ". Without
// groups it falls back to fallback's text.
func GroupedListTransform(group, label, list, fallback string) Transform {
	return func(c Cell) *string {
		items := c.Container.Find(group)
		if items.Length() == 0 {
			f := c.Container.Find(fallback).First()
			if f.Length() == 0 {
				return nil
			}
			return ptr(strippedText(f))
		}

		var buf bytes.Buffer
		buf.WriteByte('{')
		n := 0
		items.Each(func(_ int, item *goquery.Selection) {
			key := item.Find(label).First()
			ul := item.Find(list).First()
			if key.Length() == 0 || ul.Length() == 0 {
				return
			}
			texts := ul.Find("li").Map(func(_ int, li *goquery.Selection) string { return strippedText(li) })
			if n > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(jsonString(strippedText(key)))
			buf.WriteString(": ")
			buf.WriteString(jsonString(strings.Join(texts, ", ")))
			n++
		})
		buf.WriteByte('}')
		return ptr(buf.String())
	}
}

// jsonString quotes s as a JSON string without HTML escaping
func jsonString(s string) string {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}

// SelectorRule copies one element's value into Field
type SelectorRule struct {
	Selector  string
	Index     int // which match to use
	Field     string
	Transform Transform // receives the element as Value; defaults to TextTransform
}

// Extract stores the rule's value in rec, nil when the element is absent
func (r SelectorRule) Extract(doc *goquery.Selection, rec *Record) {
	el := doc.Find(r.Selector).Eq(r.Index)
	if el.Length() == 0 {
		rec.Set(r.Field, nil)
		return
	}
	transform := r.Transform
	if transform == nil {
		transform = TextTransform
	}
	rec.SetText(r.Field, transform(Cell{Container: el, Label: el, Value: el}))
}

// DetailSpec is the declarative description of a detail page: the ordered
// field set (every field starts out nil), plain selector lookups, and label
// tables.
type DetailSpec struct {
	Fields    []string
	Selectors []SelectorRule
	Tables    []LabelTable
}

// Extract builds a fresh record from doc. Nothing carries over between
// records: fields missing on this page stay nil.
func (s DetailSpec) Extract(doc *goquery.Selection) *Record {
	rec := RecordWithFields(s.Fields...)
	for _, r := range s.Selectors {
		r.Extract(doc, rec)
	}
	for _, t := range s.Tables {
		t.Extract(doc, rec)
	}
	return rec
}
