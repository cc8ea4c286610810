package main

// General API information
//
// This API answers questions about a repository's commit history. Commits,
// file identities and extracted symbols are ingested into SQLite; questions
// are answered from retrieved history context with verified commit citations.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Lineage AI API
//   description: |
//     Commit-history knowledge base. Ingest commits with their file changes,
//     then ask natural-language questions about how the code evolved.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	Execute()
}
