package mcp

import "github.com/mark3labs/mcp-go/mcp"

var ingestPDFsTool = mcp.NewTool("ingest_pdfs",
	mcp.WithDescription("Load PDF files into the document index, replacing anything indexed before. Clears the chat transcript."),
	mcp.WithString("paths",
		mcp.Required(),
		mcp.Description("Comma-separated file paths, directories or glob patterns (** supported)"),
	),
)

var askDocumentsTool = mcp.NewTool("ask_documents",
	mcp.WithDescription("Ask a question about the indexed PDFs. Returns the answer and the passages it was based on."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("Natural language question"),
	),
)

var searchDocumentsTool = mcp.NewTool("search_documents",
	mcp.WithDescription("Semantic search over the indexed PDFs without generating an answer."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of passages to return (default 3)"),
	),
)

var clearTranscriptTool = mcp.NewTool("clear_transcript",
	mcp.WithDescription("Clear the chat transcript. The document index is kept."),
)
