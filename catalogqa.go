// Package catalogqa answers natural-language questions about an institution's
// course catalog. It crawls a catalog listing, caches the text of catalog
// pages, splits it into chunks, embeds the chunks, and hands the best
// matching excerpts to a language model as grounding context.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, gemini/).
package catalogqa
