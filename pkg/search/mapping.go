package search

import (
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// DocType is the bleve type name every indexed report carries.
const DocType = "report"

// BuildIndexMapping analyzes the free text fields and keeps kind and urgency
// as exact keywords so they can be used as filters.
func BuildIndexMapping() *mapping.IndexMappingImpl {
	idx := mapping.NewIndexMapping()
	idx.DefaultAnalyzer = standard.Name
	idx.TypeField = "docType"

	text := mapping.NewTextFieldMapping()
	text.Store = false
	text.Analyzer = standard.Name
	text.IncludeInAll = true

	kw := mapping.NewTextFieldMapping()
	kw.Store = false
	kw.Analyzer = keyword.Name
	kw.IncludeInAll = false

	dt := mapping.NewDateTimeFieldMapping()
	dt.Store = false

	report := mapping.NewDocumentMapping()
	report.Dynamic = false
	report.AddFieldMappingsAt("title", text)
	report.AddFieldMappingsAt("description", text)
	report.AddFieldMappingsAt("actions", text)
	report.AddFieldMappingsAt("kind", kw)
	report.AddFieldMappingsAt("urgency", kw)
	report.AddFieldMappingsAt("timestamp", dt)
	idx.AddDocumentMapping(DocType, report)

	def := mapping.NewDocumentMapping()
	def.Dynamic = false
	idx.DefaultMapping = def
	return idx
}
