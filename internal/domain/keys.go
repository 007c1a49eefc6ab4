package domain

// KeyPrefix namespaces every key ragchat writes to the store.
const KeyPrefix = "ragchat:"

// ChunkCollection is the fixed logical name of the chunk collection.
const ChunkCollection = "chunks"
