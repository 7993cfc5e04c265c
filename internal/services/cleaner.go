package services

import "lentera/internal/models"

// RemoveDuplicates drops hits whose (title, bookTitle) identity was
// already seen, keeping the first occurrence and the original order.
func RemoveDuplicates(hits []models.SearchHit) []models.SearchHit {
	seen := make(map[string]struct{}, len(hits))
	unique := make([]models.SearchHit, 0, len(hits))
	for _, hit := range hits {
		key := hit.IdentityKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, hit)
	}
	return unique
}

// FilterEmptyDescriptions drops hits whose teaser is the placeholder the
// corpus server emits for documents with no extractable text.
func FilterEmptyDescriptions(hits []models.SearchHit) []models.SearchHit {
	filtered := make([]models.SearchHit, 0, len(hits))
	for _, hit := range hits {
		if hit.Description.Text == models.EmptyDescription {
			continue
		}
		filtered = append(filtered, hit)
	}
	return filtered
}

// CleanSearchResults deduplicates then drops placeholder descriptions.
// Both steps are stable and idempotent.
func CleanSearchResults(hits []models.SearchHit) []models.SearchHit {
	return FilterEmptyDescriptions(RemoveDuplicates(hits))
}
