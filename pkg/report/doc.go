// Package report renders the outcome of a scraper run as a Markdown
// document: run totals, images per section with a mermaid pie chart,
// and the tomb pages and images that failed.
package report
