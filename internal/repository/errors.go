package repository

import "errors"

var (
	// ErrNotFound - запись не существует либо принадлежит другому пользователю;
	// снаружи эти случаи неразличимы
	ErrNotFound = errors.New("запись не найдена")

	// ErrActiveEntryExists - у пользователя уже есть незавершённый таймер;
	// в postgres это нарушение частичного уникального индекса
	ErrActiveEntryExists = errors.New("активная запись уже существует")

	// ErrAlreadyStopped - попытка остановить уже остановленную запись
	ErrAlreadyStopped = errors.New("запись уже остановлена")

	// ErrTagNotFound - хотя бы один из переданных тегов не принадлежит пользователю
	ErrTagNotFound = errors.New("один или несколько тегов не найдены")
)
