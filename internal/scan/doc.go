// Package scan builds catalog items from the content repositories on disk.
//
// Templates are LaTeX sources laid out as <dir>/<category>/<name>.tex. Notebooks
// are <dir>/<name>.ipynb files with optional companion post text files. Scanners
// return items sorted by id so repeated scans produce the same catalog order.
package scan
