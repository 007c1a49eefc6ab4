// Package ragchat embeds the ragchat knowledge base in a Go program: ingest documents into a
// Redis (or Valkey) vector index and retrieve the context block the chat service feeds its LLMs.
//
//	client, _ := ragchat.New(ctx,
//	    ragchat.WithRedis("localhost:6379", ""),
//	    ragchat.WithOpenAI(os.Getenv("OPENAI_API_KEY"), "text-embedding-3-small"),
//	)
//	defer client.Close()
//
//	report, _ := client.Ingest(ctx, "files", "**/*.pdf")
//	passages, _ := client.Search(ctx, "What is the refund policy?", 5)
//	block := client.Context(ctx, "What is the refund policy?")
package ragchat
