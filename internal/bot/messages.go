package bot

// Chat copy for the VIP-ticket giveaway.
const (
	startMessage = `Привет! 👋
Ты на шаг ближе к участию в розыгрыше VIP-билетов на авиашоу ✈🎁
Каждый участник получает ПОДАРОК — промокод на скидку на стандартный билет!
Перед тем как выдать тебе промокод, давай проверим, что ты выполнил все условия 👇`

	askUsernameMessage = "Пожалуйста, отправь свой Instagram-никнейм (например, @yourname)"

	checkingMessageFmt = "🔍 Проверяю комментарий от @%s…"

	successMessageFmt = `✅ Отлично, все условия выполнены:
• Подписка на аккаунт
• Лайк на пост с розыгрышем
• Комментарий с отметкой двух друзей
🎁 Вот твой персональный промокод: *%s*`

	failMessage = `😕 Ты не выполнил все условия.
1. Подписка на аккаунт
2. Лайк на пост
3. Комментарий с отметкой двух друзей
🔁 Когда всё будет готово — просто отправь свой ник снова.`

	alreadyAssignedMessageFmt = "👀 Вы уже получили промокод: %s"

	exhaustedMessage = "😔 Промокоды закончились."

	serviceErrorMessage = "⚠ Не удалось проверить условия из-за технической ошибки. Попробуйте чуть позже."

	askPasswordMessage = "Пожалуйста, отправьте пароль для скачивания файла."

	wrongPasswordMessage = "🚫 Неверный пароль. Попробуйте снова."

	exportFailedMessage = "🚫 Не удалось подготовить файл."
)
