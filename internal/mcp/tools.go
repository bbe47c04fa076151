package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askTool defines the ask MCP tool.
var askTool = mcp.NewTool("ask",
	mcp.WithDescription("Turn a natural-language dataset request into structured Dateno search queries. Returns a JSON object with a question and a list of queries with filters."),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("The user's data search request"),
	),
	mcp.WithString("params",
		mcp.Description(`JSON object with optional history, prompt, model, max_tokens, temperature and top_p, e.g. {"max_tokens": 1024}`),
	),
)

// filterTool defines the filter MCP tool.
var filterTool = mcp.NewTool("filter",
	mcp.WithDescription("Ask the model to filter a JSON data set according to an instruction."),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("Filtering instruction"),
	),
	mcp.WithString("data",
		mcp.Required(),
		mcp.Description("JSON document to filter"),
	),
	mcp.WithString("history",
		mcp.Description("JSON array of prior turns ({role, content})"),
	),
)

// historyContextTool defines the history_context MCP tool.
var historyContextTool = mcp.NewTool("history_context",
	mcp.WithDescription("Reduce a conversation history to the user/assistant pairs that received like or dislike feedback."),
	mcp.WithString("history",
		mcp.Required(),
		mcp.Description("JSON array of turns with metadata"),
	),
)
