package embedding

import "hash/fnv"

const (
	clsTokenID = 101
	sepTokenID = 102
	vocabSize  = 30522
)

// Tokenizer produces the three BERT-style input rows for a text:
// input_ids, attention_mask and token_type_ids, each padded to maxTokens.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// WordHashTokenizer maps each lower-cased word to a hashed vocabulary ID and
// wraps the sequence in [CLS] ... [SEP]. It does not reproduce WordPiece, so
// model quality is lower than with the model's own vocabulary.
type WordHashTokenizer struct{}

// Tokenize implements Tokenizer. Words past maxTokens-2 are dropped.
func (WordHashTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens < 2 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = clsTokenID
	attentionMask[0] = 1
	pos := 1
	for _, word := range tokenize(text) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = wordID(word)
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos] = sepTokenID
	attentionMask[pos] = 1
	return inputIDs, attentionMask, tokenTypeIDs
}

// wordID hashes word into the non-special part of the vocabulary.
func wordID(word string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(word))
	return int64(1000 + h.Sum32()%(vocabSize-1000))
}
