package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength          = 3
	MaxUsernameLength          = 30
	MinRequestTitleLength      = 3
	MaxRequestTitleLength      = 200
	MinRequestDescLength       = 10
	MaxRequestDescLength       = 5000
	MinRevisionNoteLength      = 10
	MaxRevisionNoteLength      = 2000
	MinDisputeDescLength       = 10
	MaxDisputeDescLength       = 5000
	MinReviewCommentLength     = 1
	MaxReviewCommentLength     = 2000
	MinMessageLength           = 1
	MaxMessageLength           = 5000
	MinBudget                  = 0.0
	MaxBudget                  = 100000000.0 // 100 миллионов
	MaxDownPaymentReasonLength = 500
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	if !strings.Contains(email, "@") {
		return fmt.Errorf("email должен содержать символ @")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}

	if !strings.Contains(domainPart, ".") {
		return fmt.Errorf("доменная часть email должна содержать точку")
	}

	emailRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !emailRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("имя пользователя обязательно")
	}

	username = strings.TrimSpace(username)

	if err := ValidateLength("имя пользователя", username, MinUsernameLength, MaxUsernameLength); err != nil {
		return err
	}

	usernameRegex := regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("имя пользователя может содержать только буквы, цифры и подчеркивание")
	}

	if len(username) > 0 && unicode.IsDigit(rune(username[0])) {
		return fmt.Errorf("имя пользователя не может начинаться с цифры")
	}

	return nil
}

// ValidateRequestTitle проверяет заголовок заявки.
func ValidateRequestTitle(title string) error {
	if title == "" {
		return fmt.Errorf("заголовок заявки обязателен")
	}

	title = strings.TrimSpace(title)

	return ValidateLength("заголовок заявки", title, MinRequestTitleLength, MaxRequestTitleLength)
}

// ValidateRequestDescription проверяет описание заявки.
func ValidateRequestDescription(description string) error {
	if description == "" {
		return fmt.Errorf("описание заявки обязательно")
	}

	description = strings.TrimSpace(description)

	return ValidateLength("описание заявки", description, MinRequestDescLength, MaxRequestDescLength)
}

// ValidateBudget проверяет бюджетную вилку заявки.
func ValidateBudget(budgetMin, budgetMax *float64) error {
	if budgetMin != nil {
		if *budgetMin < MinBudget {
			return fmt.Errorf("минимальный бюджет не может быть отрицательным")
		}
		if *budgetMin > MaxBudget {
			return fmt.Errorf("минимальный бюджет не может превышать %.0f", MaxBudget)
		}
	}

	if budgetMax != nil {
		if *budgetMax < MinBudget {
			return fmt.Errorf("максимальный бюджет не может быть отрицательным")
		}
		if *budgetMax > MaxBudget {
			return fmt.Errorf("максимальный бюджет не может превышать %.0f", MaxBudget)
		}
	}

	if budgetMin != nil && budgetMax != nil {
		if *budgetMin > *budgetMax {
			return fmt.Errorf("минимальный бюджет не может быть больше максимального")
		}
	}

	return nil
}

// ValidateAmount проверяет денежную сумму сметы или заказа.
func ValidateAmount(fieldName string, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("%s не может быть отрицательной", fieldName)
	}
	if amount > MaxBudget {
		return fmt.Errorf("%s не может превышать %.0f", fieldName, MaxBudget)
	}
	return nil
}

// ValidateRevisionNote проверяет текст запроса на доработку.
func ValidateRevisionNote(note string) error {
	note = strings.TrimSpace(note)
	if note == "" {
		return fmt.Errorf("текст запроса на доработку обязателен")
	}

	return ValidateLength("текст запроса на доработку", note, MinRevisionNoteLength, MaxRevisionNoteLength)
}

// ValidateDisputeDescription проверяет описание спора.
func ValidateDisputeDescription(description string) error {
	if description == "" {
		return fmt.Errorf("описание спора обязательно")
	}

	description = strings.TrimSpace(description)

	return ValidateLength("описание спора", description, MinDisputeDescLength, MaxDisputeDescLength)
}

// ValidateReviewComment проверяет текст отзыва.
func ValidateReviewComment(comment string) error {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return fmt.Errorf("текст отзыва обязателен")
	}

	return ValidateLength("текст отзыва", comment, MinReviewCommentLength, MaxReviewCommentLength)
}

// ValidateMessageContent проверяет содержимое сообщения.
func ValidateMessageContent(content string) error {
	if content == "" {
		return fmt.Errorf("сообщение не может быть пустым")
	}

	content = strings.TrimSpace(content)

	return ValidateLength("сообщение", content, MinMessageLength, MaxMessageLength)
}

// ValidatePercent проверяет процентное значение.
func ValidatePercent(fieldName string, percent float64) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("%s должен быть в диапазоне от 0 до 100", fieldName)
	}
	return nil
}
