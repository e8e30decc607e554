// Package models содержит доменную модель пользователя системы:
// данные учётной записи, баланс кредитов и состояние подписки.
// Структура используется в бизнес‑логике, кеше и при работе с хранилищем.
package models

import "time"

// Role роль пользователя.
type Role string

const (
	// RoleRegular обычный пользователь, доступ к материалам проверяется.
	RoleRegular Role = "user"
	// RoleAdmin администратор, обходит любые проверки доступа.
	RoleAdmin Role = "admin"
)

// User представляет зарегистрированного пользователя системы.
//
// Поля Credits и IsAutoDeductEnabled меняются только через списание
// (копия записи целиком заменяет предыдущую).
type User struct {
	UUID                string            `json:"uid"`                 // Уникальный идентификатор пользователя
	Email               string            `json:"email"`               // Электронная почта
	Username            string            `json:"username"`            // Имя пользователя (уникальное)
	PasswordHash        string            `json:"-"`                   // Хэш пароля пользователя
	Role                Role              `json:"role"`                // Роль пользователя, admin или user
	Credits             int               `json:"credits"`             // Баланс кредитов, всегда >= 0
	IsPremium           bool              `json:"isPremium"`           // Признак оформленной подписки
	SubscriptionEndDate *time.Time        `json:"subscriptionEndDate"` // Дата окончания подписки
	SubscriptionLevel   SubscriptionLevel `json:"subscriptionLevel"`   // Уровень подписки
	IsAutoDeductEnabled bool              `json:"isAutoDeductEnabled"` // Списывать кредиты без подтверждения
}

// HasActiveSubscription сообщает, действует ли подписка на момент now:
// флаг IsPremium выставлен, а дата окончания задана и строго позже now.
func (u User) HasActiveSubscription(now time.Time) bool {
	return u.IsPremium && u.SubscriptionEndDate != nil && u.SubscriptionEndDate.After(now)
}
