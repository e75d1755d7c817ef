// Package rag wires the catalog retrieval pipeline together: building the
// link index, caching page content and chunks, embedding, and answering
// questions from the best matching excerpts.
package rag
