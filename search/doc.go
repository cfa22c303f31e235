// Copyright 2025 Lamplight AI
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package search provides semantic retrieval over document chunks.
//
// The Searcher type embeds a query, finds candidate chunks through the
// in-memory vector index (with an exact storage scan as fallback), filters
// them by a similarity floor, and boosts chunks that contain every query
// word after stop-word filtering.
//
// Query embeddings are cached so repeated questions skip the embedding
// service round trip.
package search
