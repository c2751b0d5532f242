package telegram

// WithLoader runs work behind a placeholder message: the placeholder is
// deleted when the work succeeds and edited into the error text when it
// fails. Mirrors the typing-indicator pattern users expect during backend
// round trips.
func WithLoader[T any](s Sender, chatID int64, text string, work func() (T, error)) (T, error) {
	loadingID, sendErr := s.Send(chatID, "⏳ "+text, nil)
	s.Typing(chatID)

	result, err := work()
	if sendErr != nil {
		return result, err
	}

	if err != nil {
		if editErr := s.Edit(chatID, loadingID, "❌ "+err.Error()); editErr != nil {
			s.Delete(chatID, loadingID)
		}
		return result, err
	}

	s.Delete(chatID, loadingID)
	return result, nil
}
