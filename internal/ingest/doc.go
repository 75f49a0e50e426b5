// Package ingest normalizes raw pasted material into ordered topic
// fragments for downstream synthesis. Splitting is purely structural
// (paragraphs, sentences, code fences); no network fetch or persistence
// happens here.
package ingest
