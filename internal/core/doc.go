// Package core conforms heterogeneous address sources into one canonical
// CSV schema: LON, LAT, NUMBER, STREET.
//
// The package holds all domain logic and no transport; the CLI, the HTTP
// server and the batch runner all call into it.
//
// # Flow
//
// A source is described by a [SourceDefinition] whose conform section is a
// [ConformSpec]. Conforming a source runs these steps:
//
//  1. [PrepareSource] decompresses downloads (zip or nothing)
//  2. [SelectSource] picks the authoritative file among the candidates
//  3. [Extractor.ExtractToSourceCSV] writes an intermediate UTF-8 CSV with
//     every attribute plus X (longitude) and Y (latitude)
//  4. [Pipeline.TransformFile] streams that CSV row by row through the
//     pipeline and writes the canonical CSV
//
// [Conformer.Conform] runs steps 3 and 4 for one file, [Conformer.ConvertSource]
// runs 2 through 4.
//
// # Row Pipeline
//
// Every row passes the same stages in order: [SmashCase], [MergeStreet]
// (when merge is set), [SplitAddress] (when split is set), [ConvertToOut]
// and [Canonicalize]. Street names are expanded by package streets.
//
// # Failure
//
// A failing row aborts its whole file and no destination file is written.
// Unknown source types and sources without a conform section are soft
// failures (see [IsSoftFailure]): batch callers skip them and continue.
// [MapError] turns any of these errors into a coded user message.
//
// Functions here hold no shared mutable state; independent sources may be
// conformed concurrently.
package core
