// ABOUTME: Built-in demo fixture used when no fixture file is configured
// ABOUTME: A small Brazilian-market dataset exercising every entity and status

package seed

import "time"

func ts(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic("seed: bad fixture timestamp: " + value)
	}
	return t
}

// Default returns the built-in demo dataset: one admin, three sales agents,
// five chats across all statuses, a short message history, and two
// instances (one connected).
func Default() *Fixture {
	return &Fixture{
		Users: []UserFixture{
			{ID: "1", Name: "Admin User", Role: "admin", Email: "admin@whatsappcrm.com", Secret: "admin123", CreatedAt: ts("2024-01-01T00:00:00Z")},
			{ID: "2", Name: "John Sales", Role: "sales", Email: "john@whatsappcrm.com", Secret: "sales123", CreatedAt: ts("2024-01-02T00:00:00Z")},
			{ID: "3", Name: "Sarah Marketing", Role: "sales", Email: "sarah@whatsappcrm.com", Secret: "sales123", CreatedAt: ts("2024-01-03T00:00:00Z")},
			{ID: "4", Name: "Mike Support", Role: "sales", Email: "mike@whatsappcrm.com", Secret: "sales123", CreatedAt: ts("2024-01-04T00:00:00Z")},
		},
		Chats: []ChatFixture{
			{ID: "1", JID: "5511999999999@c.us", Name: "Ana Silva", LastMessage: "Olá, gostaria de saber mais sobre os produtos", LastMessageAt: ts("2024-08-15T10:30:00Z"), UnreadCount: 3, AssignedTo: "2", Status: "open"},
			{ID: "2", JID: "5511888888888@c.us", Name: "Carlos Santos", LastMessage: "Obrigado pela atenção!", LastMessageAt: ts("2024-08-15T09:15:00Z"), UnreadCount: 0, AssignedTo: "3", Status: "closed"},
			{ID: "3", JID: "5511777777777@c.us", Name: "Maria Costa", LastMessage: "Quando vocês fazem entrega?", LastMessageAt: ts("2024-08-15T08:45:00Z"), UnreadCount: 1, AssignedTo: "2", Status: "in-progress"},
			{ID: "4", JID: "5511666666666@c.us", Name: "João Oliveira", LastMessage: "Perfeito, muito obrigado!", LastMessageAt: ts("2024-08-14T16:20:00Z"), UnreadCount: 0, AssignedTo: "4", Status: "closed"},
			{ID: "5", JID: "5511555555555@c.us", Name: "Fernanda Lima", LastMessage: "Preciso de ajuda com meu pedido", LastMessageAt: ts("2024-08-14T14:10:00Z"), UnreadCount: 2, AssignedTo: "3", Status: "open"},
		},
		Messages: []MessageFixture{
			{ID: "1", ChatID: "1", SenderName: "Ana Silva", Text: "Olá, boa tarde!", Timestamp: ts("2024-08-15T10:25:00Z"), Status: "read", Route: "incoming", Type: "text"},
			{ID: "2", ChatID: "1", SenderName: "John Sales", Text: "Olá Ana! Como posso ajudá-la hoje?", Timestamp: ts("2024-08-15T10:26:00Z"), Status: "read", Route: "outgoing", Type: "text"},
			{ID: "3", ChatID: "1", SenderName: "Ana Silva", Text: "Gostaria de saber mais sobre os produtos que vocês oferecem", Timestamp: ts("2024-08-15T10:30:00Z"), Status: "delivered", Route: "incoming", Type: "text"},
			{ID: "4", ChatID: "2", SenderName: "Carlos Santos", Text: "Vocês fazem entrega para toda cidade?", Timestamp: ts("2024-08-15T09:10:00Z"), Status: "read", Route: "incoming", Type: "text"},
			{ID: "5", ChatID: "2", SenderName: "Sarah Marketing", Text: "Sim, fazemos entrega para toda a região metropolitana!", Timestamp: ts("2024-08-15T09:12:00Z"), Status: "read", Route: "outgoing", Type: "text"},
			{ID: "6", ChatID: "2", SenderName: "Carlos Santos", Text: "Obrigado pela atenção!", Timestamp: ts("2024-08-15T09:15:00Z"), Status: "read", Route: "incoming", Type: "text"},
		},
		Instances: []InstanceFixture{
			{ID: "1", AdminID: "1", InstanceID: "inst_001", Token: "waCRM_token_abcd1234efgh5678", CreatedAt: ts("2024-08-01T00:00:00Z"), Status: "active"},
			{ID: "2", AdminID: "1", InstanceID: "inst_002", Token: "waCRM_token_ijkl9012mnop3456", CreatedAt: ts("2024-08-10T00:00:00Z"), Status: "inactive"},
		},
	}
}
