// Package jsonfile reads and writes the persona store as a single JSON
// document: a list of objects, one per persona.
//
// The record layout uses the store's snake_case field names:
//
//	[
//	  {
//	    "id": "p-001",
//	    "embedding_profile_text": "Demographics: Male, 30-49 ...",
//	    "embedding_vector": [0.01, -0.2, ...],
//	    "cluster_embedding_vector": [0.3, 0.1, ...],
//	    "key_values": {"demographics": "Gender: Male\nAge: 30-49", "traits": "openness = 3.5"},
//	    "consumer_summary": {"risk_preference": "Cautious"}
//	  }
//	]
//
// Vectors may be null or absent; everything other than a string id is
// optional. Files are loaded wholesale.
package jsonfile
