package bot

// 用户可见的文案
const (
	textAdminMenu      = "Меню администратора:"
	textAssistantMenu  = "Меню ассистента:"
	textUserMenu       = "Меню пользователя:"
	textAssistantsMenu = "Меню ассистентов:"
	textTasksMenu      = "Меню заданий:"
	textChooseTaskType = "Выберите тип задания:"

	textStudentsHeader          = "Список студентов:\n"
	textNoStudents              = "Нет студентов."
	textStudentsOmitted         = "Не показано студентов: %d"
	textChooseAssistantToRemove = "Выберите ассистента для удаления:"
	textNoAssistantsToRemove    = "Нет ассистентов для удаления."
	textChooseTaskToRemove      = "Выберите задание для удаления:"
	textNoTasksToRemove         = "Нет заданий для удаления."
	textMyTasks                 = "Мои задания:"
	textNoTasks                 = "У вас нет доступных заданий."
	textMyTests                 = "Мои тесты:"
	textNoTests                 = "У вас нет доступных тестов."
	textNotRegistered           = "Вы не зарегистрированы."
	textEmptyContent            = "(пусто)"

	textAssistantRemoved = "Ассистент удален."
	textTaskRemoved      = "Задание удалено."
	textTestRemoved      = "Тест удален."
	textNotFound         = "Запись не найдена."
	textInternalError    = "Произошла ошибка. Попробуйте ещё раз."
	textFlowCancelled    = "Действие отменено."
	textNothingToCancel  = "Нет активных действий."

	textRegistrationDone = "Регистрация завершена."
	textAssistantAdded   = "Ассистент добавлен."
	textTestAdded        = "Тест добавлен."
	textAssignmentAdded  = "Задание добавлено."

	textAssistantExists   = "Ассистент с таким именем уже существует. Введите другой @name:"
	textHandleIsStudent   = "Этот @name уже зарегистрирован как студент. Введите другой @name:"
	textTitleExists       = "Запись с таким названием уже существует. Введите другое название:"
	textAlreadyRegistered = "Вы уже зарегистрированы."

	promptStudentID      = "Вы не зарегистрированы. Введите номер студенческого билета:"
	promptFIO            = "Введите ФИО:"
	promptAssistantName  = "Введите @name ассистента:"
	promptPosition       = "Введите должность:"
	promptTestTitle      = "Введите название теста:"
	promptTestQuestions  = "Введите вопросы теста в формате:\nВопрос 1\nОтвет 1\nОтвет 2\n...\nВопрос 2\nОтвет 1\nОтвет 2\n..."
	promptAssignmentName = "Введите название задания:"
	promptAssignmentBody = "Введите задание:"
)

// 按钮文字
const (
	labelAssistants      = "Ассистент"
	labelStudents        = "Студенты"
	labelTasks           = "Задания"
	labelMyTasks         = "Мои задания"
	labelMyTests         = "Мои тесты"
	labelAddAssistant    = "Добавить ассистента"
	labelRemoveAssistant = "Удалить ассистента"
	labelAddTask         = "Добавить задание"
	labelRemoveTask      = "Удалить задание"
	labelTest            = "Тест"
	labelAssignment      = "Задание"
	labelBack            = "Назад"
	labelTestPrefix      = "Тест: "
)
