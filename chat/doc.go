// Package chat runs retrieval-augmented question answering sessions.
//
// A Session holds the conversation history for one user. Each question is
// answered by retrieving relevant document chunks, injecting them as context
// into the prompt, and completing the conversation through the chat model.
// When retrieval finds nothing relevant the question is answered from the
// conversation alone.
package chat
