package domain

import "errors"

// ErrStore: общий признак ошибки хранилища (сеть, ограничения, синтаксис).
// Репозитории оборачивают исходную ошибку драйвера, сохраняя её текст.
var ErrStore = errors.New("store error")
