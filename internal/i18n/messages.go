package i18n

var catalogs = map[string]map[string]string{
	LocaleUK: {
		"success":                         "Успішно",
		"error.bad_request":               "Некоректний запит",
		"error.id_invalid":                "Некоректний ідентифікатор",
		"error.internal":                  "Внутрішня помилка сервера",
		"error.not_found":                 "Не знайдено",
		"error.scope_invalid":             "Некоректна область вибірки",
		"error.company_not_found":         "Компанію не знайдено",
		"error.payer_not_found":           "Платника не знайдено",
		"error.allocation_not_found":      "Розподіл не знайдено",
		"error.allocation_fetch_failed":   "Не вдалося отримати розподіли",
		"error.allocation_update_failed":  "Не вдалося оновити розподіл",
		"error.plan_not_found":            "План не знайдено",
		"error.plan_field_missing":        "План посилається на неіснуюче поле",
		"error.field_company_missing":     "Для поля не вказано компанію",
		"error.field_company_conflict":    "Поле належить кільком компаніям",
		"error.plan_update_failed":        "Не вдалося оновити план",
		"error.sync_failed":               "Не вдалося синхронізувати розподіли",
		"error.consolidated_fetch_failed": "Не вдалося сформувати зведення",
		"error.needs_fetch_failed":        "Не вдалося сформувати потребу",
		"error.export_failed":             "Не вдалося сформувати файл",
		"error.purchase_company_required": "Оберіть компанію для заявки",
		"error.nothing_to_submit":         "Немає рядків із залишком для заявки",
		"error.quantity_invalid":          "Некоректна кількість",
		"error.submit_locked":             "Заявка для цієї компанії вже обробляється, спробуйте ще раз",
		"error.order_not_found":           "Заявку не знайдено",
		"error.order_status_invalid":      "Недопустима зміна статусу заявки",
		"error.order_has_receipts":        "За заявкою вже є надходження на склад",
		"error.order_fetch_failed":        "Не вдалося отримати заявки",
		"error.order_submit_failed":       "Не вдалося створити заявку",
		"error.order_update_failed":       "Не вдалося оновити заявку",
		"error.order_delete_failed":       "Не вдалося видалити заявку",
		"error.order_not_paid":            "Заявка не оплачена",
		"error.order_already_received":    "Заявку вже повністю оприбутковано",
		"error.order_line_not_found":      "Рядок заявки не знайдено",
		"error.quantity_negative":         "Кількість не може бути від'ємною",
		"error.over_receipt":              "Рядок %d (%s): можна прийняти не більше %s",
		"error.nothing_to_receive":        "Не вказано жодної кількості для приймання",
		"error.warehouse_not_found":       "Склад не знайдено",
		"error.receive_failed":            "Не вдалося оприбуткувати товар",
		"error.stock_fetch_failed":        "Не вдалося отримати складські дані",
		"error.rate_limited":              "Забагато запитів, повторіть через %d с",

		"export.sheet.consolidated":   "Зведення",
		"export.sheet.receipts":       "Надходження",
		"export.col.company":          "Компанія",
		"export.col.product":          "Препарат",
		"export.col.manufacturer":     "Виробник",
		"export.col.unit":             "Од.",
		"export.col.payer":            "Платник",
		"export.col.total":            "Потреба",
		"export.col.ordered":          "Замовлено",
		"export.col.remaining_raw":    "Залишок",
		"export.col.remaining":        "До замовлення",
		"export.col.package":          "Тара",
		"export.col.date":             "Дата",
		"export.col.warehouse":        "Склад",
		"export.col.order":            "Заявка",
		"export.col.line":             "Рядок",
		"export.col.quantity":         "Кількість",
		"export.col.note":             "Примітка",
		"export.col.consumer_company": "Компанія-замовник",
	},
	LocaleEN: {
		"success":                         "Success",
		"error.bad_request":               "Bad request",
		"error.id_invalid":                "Invalid id",
		"error.internal":                  "Internal server error",
		"error.not_found":                 "Not found",
		"error.scope_invalid":             "Invalid scope",
		"error.company_not_found":         "Company not found",
		"error.payer_not_found":           "Payer not found",
		"error.allocation_not_found":      "Allocation not found",
		"error.allocation_fetch_failed":   "Failed to load allocations",
		"error.allocation_update_failed":  "Failed to update allocation",
		"error.plan_not_found":            "Plan not found",
		"error.plan_field_missing":        "Plan references a missing field",
		"error.field_company_missing":     "Field has no company",
		"error.field_company_conflict":    "Field resolves to more than one company",
		"error.plan_update_failed":        "Failed to update plan",
		"error.sync_failed":               "Allocation sync failed",
		"error.consolidated_fetch_failed": "Failed to build consolidated view",
		"error.needs_fetch_failed":        "Failed to build needs summary",
		"error.export_failed":             "Export failed",
		"error.purchase_company_required": "Select a company for the request",
		"error.nothing_to_submit":         "No lines with remaining quantity to submit",
		"error.quantity_invalid":          "Invalid quantity",
		"error.submit_locked":             "A submission for this company is in progress, try again",
		"error.order_not_found":           "Purchase request not found",
		"error.order_status_invalid":      "Status transition not allowed",
		"error.order_has_receipts":        "Purchase request already has stock receipts",
		"error.order_fetch_failed":        "Failed to load purchase requests",
		"error.order_submit_failed":       "Failed to submit purchase request",
		"error.order_update_failed":       "Failed to update purchase request",
		"error.order_delete_failed":       "Failed to delete purchase request",
		"error.order_not_paid":            "Purchase request is not paid",
		"error.order_already_received":    "Purchase request is already fully received",
		"error.order_line_not_found":      "Purchase request line not found",
		"error.quantity_negative":         "Quantity must not be negative",
		"error.over_receipt":              "Line %d (%s): at most %s can be received",
		"error.nothing_to_receive":        "No quantity given to receive",
		"error.warehouse_not_found":       "Warehouse not found",
		"error.receive_failed":            "Failed to receive stock",
		"error.stock_fetch_failed":        "Failed to load stock data",
		"error.rate_limited":              "Too many requests, retry in %d s",

		"export.sheet.consolidated":   "Consolidated",
		"export.sheet.receipts":       "Receipts",
		"export.col.company":          "Company",
		"export.col.product":          "Product",
		"export.col.manufacturer":     "Manufacturer",
		"export.col.unit":             "Unit",
		"export.col.payer":            "Payer",
		"export.col.total":            "Required",
		"export.col.ordered":          "Ordered",
		"export.col.remaining_raw":    "Remaining",
		"export.col.remaining":        "To order",
		"export.col.package":          "Package",
		"export.col.date":             "Date",
		"export.col.warehouse":        "Warehouse",
		"export.col.order":            "Request",
		"export.col.line":             "Line",
		"export.col.quantity":         "Quantity",
		"export.col.note":             "Note",
		"export.col.consumer_company": "Consumer company",
	},
}
